package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

// Playable receives the events produced by the sequencer.
type Playable interface {
	Schedule(ev Event) error
}

// AddNote adds a note at position (in beats) that lasts length beats.
func (c *Clip) AddNote(position float64, pitch int, length float64) {
	c.AddNoteVelocity(position, pitch, length, DefaultVelocity)
}

func (c *Clip) AddNoteVelocity(position float64, pitch int, length, velocity float64) {
	if length <= 0 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: velocity,
		length:   length,
	})
}

// Len returns the number of notes in the clip.
func (c *Clip) Len() int { return len(c.notes) }

// Copy returns a clip with the same notes that plays on p.
func (c *Clip) Copy(p Playable) *Clip {
	return &Clip{
		Length:     c.Length,
		instrument: p,
		notes:      append([]note(nil), c.notes...),
	}
}

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // scale step in the current tuning
	velocity float64
	length   float64 // note length in beats
}

type Sequencer struct {
	*Props
	bpm         *atomic.Value
	clips       *atomic.Value
	sampleRate  float64
	position    float64 // pulses since the sequencer started
}

const (
	PropBPM   = "bpm"
	PropClips = "clips"
)

func NewSequencer(props *Props, sampleRate float64) *Sequencer {
	clips := make(map[string]*Clip)
	seq := &Sequencer{
		Props:      props,
		sampleRate: sampleRate,
		clips:      props.MustRegister(PropClips, setClips, clips),
		bpm:        props.MustRegister(PropBPM, setFloat64(1, 500), 120.0),
	}
	return seq
}

// Tick schedules the notes that start within the next numSamples samples. now is the stream
// time of the first sample.
func (s *Sequencer) Tick(now float64, numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// A block rarely covers a whole number of pulses, so the position is kept fractional.
	// Every pulse falls into exactly one [start, end) window.
	secondsPerPulse := 60. / (bpm * PPQN)
	start := s.position
	end := start + float64(numSamples)/s.sampleRate/secondsPerPulse

	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		length := float64(clip.Length)
		for _, note := range clip.notes {
			duration := note.length * 60. / bpm
			// first repetition of the note at or after start
			pos := float64(note.pos) + length*math.Ceil((start-float64(note.pos))/length)
			for ; pos < end; pos += length {
				clip.play(now+(pos-start)*secondsPerPulse, note, duration)
			}
		}
	}
	s.position = end
}

func (c *Clip) play(t float64, n note, duration float64) {
	// Errors only occur for malformed events, which the sequencer never produces.
	_ = c.instrument.Schedule(NoteOnEvent(t, n.pitch, n.velocity))
	_ = c.instrument.Schedule(NoteOffEvent(t+duration, n.pitch))
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
