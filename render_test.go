package main

import (
	"strings"
	"testing"

	"github.com/mrdg/edo/audio"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		ev        audio.Event
		divisions int
		want      string
	}{
		{audio.NoteOnEvent(0, 69, 0.8), 12, "note on 69 vel 0.80 Freq: 440.00"},
		{audio.NoteOnEvent(0, 60, 1), 12, "note on 60 vel 1.00 Freq: 261.63"},
		{audio.NoteOffEvent(0, 70), 24, "note off 70 Freq: 452.89"},
		{audio.NoteOffEvent(0, 88), 19, "note off 88 Freq: 880.00"},
		{audio.Event{Kind: audio.AllNotesOff}, 12, "all notes off"},
		{audio.Event{Kind: audio.AllSoundOff}, 31, "all sound off"},
		{audio.RetuneEvent(0, 19), 12, "retune 19-edo"},
	}
	for _, test := range tests {
		if got := describe(test.ev, test.divisions); got != test.want {
			t.Errorf("want %q, got %q", test.want, got)
		}
	}
}

func TestRenderStatus(t *testing.T) {
	env := newTestEnv(t)
	mustEval(t, env, "edo 19")
	mustEval(t, env, "loop bass 4 [48 _ 55 _]")

	var b strings.Builder
	renderStatus(env, &b)
	if status := b.String(); !strings.Contains(status, "12-edo, 100.00 cents per step (switching to 19-edo)") {
		t.Errorf("status should show the pending tuning:\n%s", status)
	}

	// the audio thread applies the new tuning at its next block
	env.inst.Process([][]float32{make([]float32, 64), make([]float32, 64)})
	b.Reset()
	renderStatus(env, &b)
	status := b.String()
	if strings.Contains(status, "switching") {
		t.Errorf("tuning change should be applied:\n%s", status)
	}
	for _, want := range []string{"19-edo, 63.16 cents", "0/10 active", "bass", "0 overruns"} {
		if !strings.Contains(status, want) {
			t.Errorf("status is missing %q:\n%s", want, status)
		}
	}
	if strings.Contains(status, "\033[") {
		t.Errorf("status should not be colored when color is off")
	}

	env.color = true
	if got := env.colorize("x", colorRed); got != "\033[31mx\033[0m" {
		t.Errorf("unexpected colorized text: %q", got)
	}
}
