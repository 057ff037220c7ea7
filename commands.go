package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/mrdg/edo/audio"
	"github.com/mrdg/edo/dub"
)

type command struct {
	name  string
	help  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"edo", "edo <divisions>: retune to n equal divisions of the octave", edoCommand, 1},
		{"on", "on <note> [velocity]: start a note", noteOnCommand, -1},
		{"off", "off <note>: release a note", noteOffCommand, 1},
		{"panic", "panic: stop all loops and silence all voices", panicCommand, 0},
		{"set", "set <device> <prop> <value>: set a property", setCommand, 3},
		{"get", "get <device> <prop>: show a property", getCommand, 2},
		{"preset", "preset <name>: load a tuning preset", presetCommand, 1},
		{"presets", "presets: list tuning presets", presetsCommand, 0},
		{"loop", "loop <name> <beats> [pattern]: play a pattern on repeat", loopCommand, 3},
		{"steps", "steps <name> <note> '<match> [beats]: play a note on matching 16th steps", stepsCommand, -3},
		{"unloop", "unloop <name>: stop a pattern", unloopCommand, 1},
		{"render", "render <file> <seconds>: render the loops to a wav file", renderCommand, 2},
		{"status", "status: show the state of the synth", statusCommand, 0},
		{"freq", "freq <note>: show the frequency of a note", freqCommand, 1},
		{"help", "help: list commands", helpCommand, 0},
	}
}

func edoCommand(env *env, args []dub.Node) (dub.Node, error) {
	var divisions int
	if err := readArgs(args, &divisions); err != nil {
		return nil, err
	}
	return nil, env.setProp(deviceSynth, audio.PropDivisions, divisions)
}

func noteOnCommand(env *env, args []dub.Node) (dub.Node, error) {
	var note int
	velocity := audio.DefaultVelocity
	var err error
	if len(args) == 2 {
		err = readArgs(args, &note, &velocity)
	} else {
		err = readArgs(args, &note)
	}
	if err != nil {
		return nil, err
	}
	return nil, env.inst.NoteOn(note, velocity)
}

func noteOffCommand(env *env, args []dub.Node) (dub.Node, error) {
	var note int
	if err := readArgs(args, &note); err != nil {
		return nil, err
	}
	return nil, env.inst.NoteOff(note)
}

func panicCommand(env *env, args []dub.Node) (dub.Node, error) {
	if err := env.updateClips(func(clips map[string]*audio.Clip) error {
		for name := range clips {
			delete(clips, name)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return nil, env.inst.AllSoundOff()
}

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args[:2], &device, &prop); err != nil {
		return nil, err
	}
	switch v := args[2].(type) {
	case dub.Int:
		return nil, env.setProp(device, prop, int(v))
	case dub.Float:
		return nil, env.setProp(device, prop, float64(v))
	case dub.String:
		return nil, env.setProp(device, prop, string(v))
	case dub.Identifier:
		return nil, env.setProp(device, prop, string(v))
	default:
		return nil, fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args, &device, &prop); err != nil {
		return nil, err
	}
	v, err := env.getProp(device, prop)
	if err != nil {
		return nil, err
	}
	if clips, ok := v.(map[string]*audio.Clip); ok {
		return dub.String(strings.Join(clipNames(clips), " ")), nil
	}
	return dub.String(fmt.Sprint(v)), nil
}

func presetsCommand(env *env, args []dub.Node) (dub.Node, error) {
	return dub.String(strings.Join(audio.Presets(), " ")), nil
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, audio.LoadPreset(name, env.inst)
}

func loopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	var length float64
	var pattern []dub.Node
	if err := readArgs(args, &name, &length, &pattern); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("loop length must be positive: %v", length)
	}
	clip := audio.NewClip(length, env.inst)
	if err := evalPattern(pattern, clip, length, new(float64)); err != nil {
		return nil, err
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) error {
		clips[name] = clip
		return nil
	})
}

const stepsPerBeat = 4

func stepsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	var note int
	beats := 4
	if len(args) > 4 {
		return nil, errors.New("too many arguments")
	}
	if err := readArgs(args[:2], &name, &note); err != nil {
		return nil, err
	}
	expr, ok := args[2].(dub.MatchExpr)
	if !ok {
		return nil, fmt.Errorf("argument error: expected a match expression")
	}
	if len(args) == 4 {
		if err := readArgs(args[3:], &beats); err != nil {
			return nil, err
		}
	}
	seq, err := dub.EvalMatchExpr(expr, beats, stepsPerBeat)
	if err != nil {
		return nil, err
	}
	clip := audio.NewClip(float64(beats), env.inst)
	const step = 1.0 / stepsPerBeat
	for i, v := range seq {
		if v != 0 {
			clip.AddNote(float64(i)*step, note, step)
		}
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) error {
		clips[name] = clip
		return nil
	})
}

func unloopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, env.updateClips(func(clips map[string]*audio.Clip) error {
		if _, ok := clips[name]; !ok {
			return fmt.Errorf("no such loop: %s", name)
		}
		delete(clips, name)
		return nil
	})
}

func renderCommand(env *env, args []dub.Node) (dub.Node, error) {
	var file string
	var seconds float64
	if err := readArgs(args, &file, &seconds); err != nil {
		return nil, err
	}
	if seconds <= 0 {
		return nil, fmt.Errorf("render length must be positive: %v", seconds)
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	peak, err := env.render(f, seconds)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return dub.String(fmt.Sprintf("wrote %.2fs to %s, peak %s", seconds, file, formatDB(peak))), nil
}

// render plays the current loops through a copy of the synth and writes the result to w.
func (e *env) render(w io.Writer, seconds float64) (float64, error) {
	sampleRate := e.inst.Clock().SampleRate()
	clock := audio.NewClock(sampleRate)
	inst, err := audio.NewInstrument(audio.NewProps(), clock, audio.Config{
		SampleRate: sampleRate,
		Voices:     e.inst.Voices(),
		Divisions:  e.divisions(),
	})
	if err != nil {
		return 0, err
	}
	for _, key := range []string{audio.PropSound, audio.PropLevel} {
		v, err := e.inst.Get(key)
		if err != nil {
			return 0, err
		}
		if err := inst.Set(key, v); err != nil {
			return 0, err
		}
	}

	seq := audio.NewSequencer(audio.NewProps(), sampleRate)
	bpm, err := e.sequencer.Get(audio.PropBPM)
	if err != nil {
		return 0, err
	}
	if err := seq.Set(audio.PropBPM, bpm); err != nil {
		return 0, err
	}
	clips := make(map[string]*audio.Clip)
	for name, clip := range e.clips() {
		clips[name] = clip.Copy(inst)
	}
	if err := seq.Set(audio.PropClips, clips); err != nil {
		return 0, err
	}

	sink, err := audio.NewSink(audio.BackendNone, clock, audio.DefaultBufferSize)
	if err != nil {
		return 0, err
	}
	sink.AddTicker(seq)
	sink.AddSources(inst)
	return audio.RenderWAV(w, sink, int(seconds*sampleRate), audio.DefaultBufferSize)
}

func statusCommand(env *env, args []dub.Node) (dub.Node, error) {
	var b strings.Builder
	renderStatus(env, &b)
	return dub.String(strings.TrimRight(b.String(), "\n")), nil
}

func freqCommand(env *env, args []dub.Node) (dub.Node, error) {
	var note int
	if err := readArgs(args, &note); err != nil {
		return nil, err
	}
	return dub.String(describeNote(note, env.divisions())), nil
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, cmd.help)
	}
	return dub.String(strings.Join(lines, "\n")), nil
}

// evalPattern adds the notes in pattern to clip. Every item gets an equal share of
// divLength: numbers are notes, tuples are chords, arrays subdivide and _ is a rest.
func evalPattern(pattern []dub.Node, clip *audio.Clip, divLength float64, pos *float64) error {
	if len(pattern) == 0 {
		return nil
	}
	noteLength := divLength / float64(len(pattern))
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Int:
			clip.AddNote(*pos, int(v), noteLength)
			*pos += noteLength
		case dub.Tuple:
			for _, item := range v {
				i, ok := item.(dub.Int)
				if !ok {
					return fmt.Errorf("invalid %v in chord %v", item, v)
				}
				clip.AddNote(*pos, int(i), noteLength)
			}
			*pos += noteLength
		case dub.Array:
			if err := evalPattern(v, clip, noteLength, pos); err != nil {
				return err
			}
		case dub.Identifier:
			if v != "_" {
				return fmt.Errorf("invalid %q in pattern %v", v, pattern)
			}
			*pos += noteLength
		default:
			return fmt.Errorf("invalid %v in pattern %v", v, pattern)
		}
	}
	return nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("wrong number of arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch v := arg.(type) {
			case dub.Float:
				*p = float64(v)
			case dub.Int:
				*p = float64(v)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			n, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(n)
		case *[]dub.Node:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}

func clipNames(clips map[string]*audio.Clip) []string {
	names := make([]string, 0, len(clips))
	for name := range clips {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatDB(amp float64) string {
	if amp <= 0 {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", 20*math.Log10(amp))
}
