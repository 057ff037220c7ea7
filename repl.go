package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/edo/audio"
	"github.com/mrdg/edo/dub"
	"github.com/mrdg/edo/midi"
)

const (
	deviceSynth = "synth"
	deviceSeq   = "seq"
)

type env struct {
	inst      *audio.Instrument
	sequencer *audio.Sequencer
	devices   map[string]audio.Device
	midi      *midi.Input
	color     bool
}

func newEnv(inst *audio.Instrument, seq *audio.Sequencer) *env {
	return &env{
		inst:      inst,
		sequencer: seq,
		devices: map[string]audio.Device{
			deviceSynth: inst,
			deviceSeq:   seq,
		},
	}
}

func (e *env) setProp(device, prop string, v interface{}) error {
	instr, ok := e.devices[device]
	if !ok {
		return fmt.Errorf("unknown device: %s", device)
	}
	return instr.Set(prop, v)
}

func (e *env) getProp(device, prop string) (interface{}, error) {
	instr, ok := e.devices[device]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", device)
	}
	return instr.Get(prop)
}

// divisions returns the requested tuning. The instrument applies it at the start of its
// next block.
func (e *env) divisions() int {
	v, err := e.getProp(deviceSynth, audio.PropDivisions)
	if err != nil {
		return e.inst.Divisions()
	}
	return v.(int)
}

func (e *env) clips() map[string]*audio.Clip {
	v, err := e.getProp(deviceSeq, audio.PropClips)
	if err != nil {
		return nil
	}
	return v.(map[string]*audio.Clip)
}

// updateClips applies f to a copy of the sequencer's clips and stores the result, so the
// audio thread never sees a map that is being modified.
func (e *env) updateClips(f func(map[string]*audio.Clip) error) error {
	old := e.clips()
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		clips[k] = v
	}
	if err := f(clips); err != nil {
		return err
	}
	return e.setProp(deviceSeq, audio.PropClips, clips)
}

func (e *env) eval(input string) (dub.Node, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

// exec evaluates every non-empty line of a script and stops at the first error.
func (e *env) exec(script string) error {
	for n, line := range strings.Split(script, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := e.eval(line); err != nil {
			return fmt.Errorf("line %d: %w", n+1, err)
		}
	}
	return nil
}

func repl(env *env) error {
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer rl.Close()
	log.SetOutput(rl.Stderr())

	for {
		line, err := rl.Readline()
		if err == io.EOF || errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		result, err := env.eval(line)
		if err != nil {
			fmt.Fprintln(rl.Stderr(), env.colorize(err.Error(), colorRed))
			continue
		}
		if result != nil {
			fmt.Fprintln(rl.Stdout(), format(result))
		}
	}
}

func format(n dub.Node) string {
	switch v := n.(type) {
	case dub.String:
		return string(v)
	case dub.Identifier:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
