package audio

import (
	"errors"
	"fmt"
	"math"
)

type EventKind uint8

const (
	NoteOn EventKind = iota + 1
	NoteOff
	AllNotesOff // release every voice with a tail
	AllSoundOff // silence every voice immediately
	Retune      // switch to Event.Divisions and silence every voice
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note on"
	case NoteOff:
		return "note off"
	case AllNotesOff:
		return "all notes off"
	case AllSoundOff:
		return "all sound off"
	case Retune:
		return "retune"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is a timestamped instruction for the synth. Time is measured in seconds on the
// stream clock. Velocity is in the range 0-1 and only used by NoteOn.
type Event struct {
	Kind      EventKind
	Note      int
	Velocity  float64
	Divisions int // only for Retune
	Time      float64
}

var ErrInvalidEvent = errors.New("invalid event")

func (ev Event) validate() error {
	if ev.Kind < NoteOn || ev.Kind > Retune {
		return ErrInvalidEvent
	}
	if ev.Kind == Retune && ev.Divisions < 1 {
		return ErrInvalidEvent
	}
	if math.IsNaN(ev.Time) || math.IsInf(ev.Time, 0) {
		return ErrInvalidEvent
	}
	return nil
}

func NoteOnEvent(t float64, note int, velocity float64) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: velocity, Time: t}
}

func NoteOffEvent(t float64, note int) Event {
	return Event{Kind: NoteOff, Note: note, Time: t}
}

func RetuneEvent(t float64, divisions int) Event {
	return Event{Kind: Retune, Divisions: divisions, Time: t}
}
