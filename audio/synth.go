package audio

import (
	"fmt"
	"math"
)

// headroom scales note velocity so that a full chord doesn't clip.
const headroom = 0.15

const twoPi = 2 * math.Pi

type voiceState int

const (
	stateIdle voiceState = iota
	stateActive
	stateReleasing
)

func (s voiceState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateActive:
		return "active"
	case stateReleasing:
		return "releasing"
	}
	return fmt.Sprintf("voiceState(%d)", int(s))
}

// voice is a single sine oscillator.
type voice struct {
	phase      float64
	phaseDelta float64
	level      float64
	env        envelope
	note       int
	state      voiceState
}

func (v *voice) start(note int, velocity, phaseDelta float64) {
	v.phase = 0
	v.phaseDelta = phaseDelta
	v.level = velocity * headroom
	v.env.reset()
	v.note = note
	v.state = stateActive
}

func (v *voice) release(allowTail bool) {
	if v.state == stateIdle {
		return
	}
	if !allowTail {
		v.reset()
		return
	}
	v.env.startRelease()
	v.state = stateReleasing
}

func (v *voice) reset() {
	v.phaseDelta = 0
	v.level = 0
	v.env.reset()
	v.note = 0
	v.state = stateIdle
}

// render adds n samples starting at start to every channel of out.
func (v *voice) render(out [][]float32, start, n int) {
	if v.state == stateIdle || v.phaseDelta == 0 {
		return
	}
	for i := start; i < start+n; i++ {
		var sample float32
		if v.state == stateReleasing {
			sample = float32(math.Sin(v.phase) * v.level * v.env.gain)
		} else {
			sample = float32(math.Sin(v.phase) * v.level)
		}
		for _, ch := range out {
			ch[i] += sample
		}
		v.phase += v.phaseDelta
		if v.phase >= twoPi {
			v.phase -= twoPi
		}
		if v.state == stateReleasing && !v.env.advance() {
			v.reset()
			return
		}
	}
}

// Synth is a fixed pool of sine voices tuned to an equal division of the octave. It is not safe
// for concurrent use: all methods are expected to run on the audio goroutine.
type Synth struct {
	voices     []voice
	sampleRate float64
	divisions  int
	canPlay    bool
}

func NewSynth(sampleRate float64, numVoices, divisions int) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %v", sampleRate)
	}
	if numVoices < 1 {
		return nil, fmt.Errorf("need at least one voice, got %d", numVoices)
	}
	if divisions < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDivisions, divisions)
	}
	return &Synth{
		voices:     make([]voice, numVoices),
		sampleRate: sampleRate,
		divisions:  divisions,
		canPlay:    true,
	}, nil
}

// NoteOn starts a voice for note. A voice already bound to the same note is restarted. It
// returns false if the note was dropped because no voice is free, sound is disabled or the
// note's pitch can't be rendered at the sample rate.
func (s *Synth) NoteOn(note int, velocity float64) bool {
	if !s.canPlay {
		return false
	}
	freq := Frequency(note, s.divisions)
	if !s.playable(freq) {
		return false
	}
	v := s.findVoice(note)
	if v == nil {
		v = s.findFreeVoice()
	}
	if v == nil {
		return false
	}
	if velocity < 0 || math.IsNaN(velocity) {
		velocity = 0
	} else if velocity > 1 {
		velocity = 1
	}
	v.start(note, velocity, twoPi*freq/s.sampleRate)
	return true
}

// playable reports whether freq is a positive pitch below the Nyquist frequency.
func (s *Synth) playable(freq float64) bool {
	return freq > 0 && freq < s.sampleRate/2
}

// NoteOff releases the voice playing note, if there is one.
func (s *Synth) NoteOff(note int, allowTail bool) {
	if v := s.findVoice(note); v != nil {
		v.release(allowTail)
	}
}

// AllNotesOff releases every sounding voice.
func (s *Synth) AllNotesOff(allowTail bool) {
	for n := range s.voices {
		s.voices[n].release(allowTail)
	}
}

// Render adds the output of all sounding voices to out[ch][start:start+n]. The caller is
// responsible for clearing out.
func (s *Synth) Render(out [][]float32, start, n int) {
	for k := range s.voices {
		v := &s.voices[k]
		if v.state == stateIdle {
			continue
		}
		v.render(out, start, n)
	}
}

// Retune switches to a new number of divisions per octave and silences every voice. On error
// the current tuning is kept.
func (s *Synth) Retune(divisions int) error {
	if divisions < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDivisions, divisions)
	}
	s.divisions = divisions
	for n := range s.voices {
		s.voices[n].reset()
	}
	return nil
}

func (s *Synth) SetSoundEnabled(enabled bool) { s.canPlay = enabled }

func (s *Synth) SoundEnabled() bool { return s.canPlay }

func (s *Synth) Divisions() int { return s.divisions }

func (s *Synth) Voices() int { return len(s.voices) }

// ActiveVoices returns the number of voices that are not idle.
func (s *Synth) ActiveVoices() int {
	var n int
	for k := range s.voices {
		if s.voices[k].state != stateIdle {
			n++
		}
	}
	return n
}

func (s *Synth) findVoice(note int) *voice {
	for n := range s.voices {
		if v := &s.voices[n]; v.state != stateIdle && v.note == note {
			return v
		}
	}
	return nil
}

func (s *Synth) findFreeVoice() *voice {
	for n := range s.voices {
		if s.voices[n].state == stateIdle {
			return &s.voices[n]
		}
	}
	return nil
}
