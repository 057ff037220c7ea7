package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrdg/edo/audio"
	"golang.org/x/term"
)

// describe returns a line of text for ev as heard under a tuning of divisions steps per
// octave, e.g. "note on 69 vel 0.80 Freq: 440.00".
func describe(ev audio.Event, divisions int) string {
	switch ev.Kind {
	case audio.NoteOn:
		return fmt.Sprintf("%s %d vel %.2f Freq: %.2f", ev.Kind, ev.Note, ev.Velocity,
			audio.Frequency(ev.Note, divisions))
	case audio.NoteOff:
		return fmt.Sprintf("%s %d Freq: %.2f", ev.Kind, ev.Note, audio.Frequency(ev.Note, divisions))
	case audio.Retune:
		return fmt.Sprintf("%s %d-edo", ev.Kind, ev.Divisions)
	default:
		return ev.Kind.String()
	}
}

func describeNote(note, divisions int) string {
	return fmt.Sprintf("%d Freq: %.2f", note, audio.Frequency(note, divisions))
}

func renderStatus(env *env, w io.Writer) {
	stats := env.inst.Stats()
	row := func(name, format string, args ...interface{}) {
		fmt.Fprintf(w, "%s %s\n", env.colorize(fmt.Sprintf("%-8s", name), colorBlue),
			fmt.Sprintf(format, args...))
	}

	tuning := fmt.Sprintf("%d-edo, %.2f cents per step", stats.Divisions, 1200/float64(stats.Divisions))
	if requested := env.divisions(); requested != stats.Divisions {
		tuning += env.colorize(fmt.Sprintf(" (switching to %d-edo)", requested), colorYellow)
	}
	row("tuning", "%s", tuning)
	row("voices", "%d/%d active", stats.ActiveVoices, env.inst.Voices())

	sound, _ := env.getProp(deviceSynth, audio.PropSound)
	level, _ := env.getProp(deviceSynth, audio.PropLevel)
	speaker := "🔈"
	if on, _ := sound.(bool); !on {
		speaker = "🔇"
	}
	row("level", "%s %.1f dB", speaker, level)

	bpm, _ := env.getProp(deviceSeq, audio.PropBPM)
	row("bpm", "%v", bpm)
	if names := clipNames(env.clips()); len(names) > 0 {
		row("loops", "%s", strings.Join(names, " "))
	}
	if env.midi != nil {
		row("midi", "%s, %d events", env.midi.Port(), env.midi.Received())
	}

	audioStats := fmt.Sprintf("%d blocks, %d overruns, %d dropped notes", stats.Blocks,
		stats.Overruns, stats.DroppedNotes)
	if stats.Overruns > 0 || stats.DroppedNotes > 0 {
		audioStats = env.colorize(audioStats, colorYellow)
	}
	row("audio", "%s", audioStats)
	if stats.Evicted > 0 || stats.Contended > 0 {
		row("events", "%s", env.colorize(fmt.Sprintf("%d evicted, %d deferred drains",
			stats.Evicted, stats.Contended), colorRed))
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func (e *env) colorize(text string, color int) string {
	if !e.color {
		return text
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
