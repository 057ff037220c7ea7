package audio

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Defaults for a playback session.
const (
	DefaultSampleRate = 44100
	DefaultBufferSize = 512
	DefaultVoices     = 10
	DefaultDivisions  = 12
	DefaultVelocity   = 0.8

	eventBufferSize = 256
)

// Property names of an Instrument.
const (
	PropDivisions = "edo"
	PropSound     = "sound"
	PropLevel     = "level"
)

type Config struct {
	SampleRate float64
	BufferSize int // largest block rendered in one pass
	Voices     int
	Divisions  int
}

func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Voices == 0 {
		c.Voices = DefaultVoices
	}
	if c.Divisions == 0 {
		c.Divisions = DefaultDivisions
	}
	return c
}

// Stats are counters describing the health of the audio path.
type Stats struct {
	Blocks       uint64 // number of Process calls
	DroppedNotes uint64 // note ons that found no free voice or had an unplayable pitch
	Overruns     uint64 // blocks that took longer to render than to play
	Evicted      uint64 // events dropped from a full event buffer
	Contended    uint64 // drains deferred because a producer held the buffer
	ActiveVoices int
	Divisions    int
}

// Instrument drives a Synth from the audio callback. Events pushed from other goroutines are
// applied at their sample position within the block being rendered.
type Instrument struct {
	*Props
	synth  *Synth
	events *EventBuffer
	clock  *Clock
	due    []Event

	// mono is the synth's render target; out wraps it as a single channel.
	mono []float32
	out  [][]float32

	divisions *atomic.Value
	sound     *atomic.Value
	level     *atomic.Value

	blocks       uint64
	dropped      uint64
	overruns     uint64
	activeVoices int64
	appliedDivs  int64
}

func NewInstrument(props *Props, clock *Clock, cfg Config) (*Instrument, error) {
	cfg = cfg.withDefaults()
	if cfg.SampleRate != clock.SampleRate() {
		return nil, fmt.Errorf("instrument sample rate %v does not match clock %v", cfg.SampleRate, clock.SampleRate())
	}
	if cfg.BufferSize < 1 {
		return nil, fmt.Errorf("invalid buffer size: %d", cfg.BufferSize)
	}
	synth, err := NewSynth(cfg.SampleRate, cfg.Voices, cfg.Divisions)
	if err != nil {
		return nil, err
	}
	events := NewEventBuffer(eventBufferSize)
	inst := &Instrument{
		Props:       props,
		synth:       synth,
		events:      events,
		clock:       clock,
		due:         make([]Event, 0, events.Cap()),
		mono:        make([]float32, cfg.BufferSize),
		out:         make([][]float32, 1),
		divisions:   props.MustRegister(PropDivisions, setDivisions, cfg.Divisions),
		sound:       props.MustRegister(PropSound, setBool, true),
		level:       props.MustRegister(PropLevel, setLevel, 0.0),
		appliedDivs: int64(cfg.Divisions),
	}
	return inst, nil
}

// Set updates a property. Every accepted change of the tuning is queued as a Retune event, so
// it resets the voices even when the value is unchanged and keeps its place among the notes.
func (i *Instrument) Set(key string, value interface{}) error {
	if err := i.Props.Set(key, value); err != nil {
		return err
	}
	if key == PropDivisions {
		return i.events.Push(RetuneEvent(i.clock.Time(), i.divisions.Load().(int)))
	}
	return nil
}

// Clock returns the stream clock used to timestamp events.
func (i *Instrument) Clock() *Clock { return i.clock }

// Schedule queues an event at its own timestamp.
func (i *Instrument) Schedule(ev Event) error {
	return i.events.Push(ev)
}

// NoteOn plays note as soon as possible.
func (i *Instrument) NoteOn(note int, velocity float64) error {
	return i.events.Push(NoteOnEvent(i.clock.Time(), note, velocity))
}

// NoteOff releases note as soon as possible.
func (i *Instrument) NoteOff(note int) error {
	return i.events.Push(NoteOffEvent(i.clock.Time(), note))
}

func (i *Instrument) AllNotesOff() error {
	return i.events.Push(Event{Kind: AllNotesOff, Time: i.clock.Time()})
}

func (i *Instrument) AllSoundOff() error {
	return i.events.Push(Event{Kind: AllSoundOff, Time: i.clock.Time()})
}

// Pending returns the number of queued events.
func (i *Instrument) Pending() int { return i.events.Len() }

// Divisions returns the tuning currently in use by the audio thread.
func (i *Instrument) Divisions() int { return int(atomic.LoadInt64(&i.appliedDivs)) }

// Voices returns the polyphony of the instrument.
func (i *Instrument) Voices() int { return i.synth.Voices() }

func (i *Instrument) Stats() Stats {
	return Stats{
		Blocks:       atomic.LoadUint64(&i.blocks),
		DroppedNotes: atomic.LoadUint64(&i.dropped),
		Overruns:     atomic.LoadUint64(&i.overruns),
		Evicted:      i.events.Evicted(),
		Contended:    i.events.Contended(),
		ActiveVoices: int(atomic.LoadInt64(&i.activeVoices)),
		Divisions:    i.Divisions(),
	}
}

// Process renders one block into samples, adding to what is already there.
func (i *Instrument) Process(samples [][]float32) {
	if len(samples) == 0 {
		return
	}
	began := time.Now()
	n := len(samples[0])

	i.synth.SetSoundEnabled(i.sound.Load().(bool))
	gain := float32(math.Pow(10, i.level.Load().(float64)/20.0))

	chunk := len(i.mono)
	for off := 0; off < n; off += chunk {
		size := chunk
		if n-off < size {
			size = n - off
		}
		i.processBlock(samples, off, size, gain)
	}

	atomic.StoreInt64(&i.activeVoices, int64(i.synth.ActiveVoices()))
	atomic.AddUint64(&i.blocks, 1)
	budget := time.Duration(float64(n) / i.clock.SampleRate() * float64(time.Second))
	if time.Since(began) > budget {
		atomic.AddUint64(&i.overruns, 1)
	}
}

func (i *Instrument) processBlock(samples [][]float32, off, n int, gain float32) {
	sampleRate := i.clock.SampleRate()
	start := i.clock.Time() + float64(off)/sampleRate
	end := start + float64(n)/sampleRate

	mono := i.mono[:n]
	out := i.out
	out[0] = mono

	i.due = i.events.DrainDue(end, i.due[:0])
	pos := 0
	for _, ev := range i.due {
		at := int(math.Round((ev.Time - start) * sampleRate))
		if at < pos {
			at = pos
		} else if at > n {
			at = n
		}
		if at > pos {
			i.synth.Render(out, pos, at-pos)
			pos = at
		}
		i.apply(ev)
	}
	if pos < n {
		i.synth.Render(out, pos, n-pos)
	}

	for k, sample := range mono {
		sample *= gain
		for _, ch := range samples {
			ch[off+k] += sample
		}
		mono[k] = 0
	}
}

func (i *Instrument) apply(ev Event) {
	switch ev.Kind {
	case NoteOn:
		if !i.synth.NoteOn(ev.Note, ev.Velocity) && i.synth.SoundEnabled() {
			atomic.AddUint64(&i.dropped, 1)
		}
	case NoteOff:
		i.synth.NoteOff(ev.Note, true)
	case AllNotesOff:
		i.synth.AllNotesOff(true)
	case AllSoundOff:
		i.synth.AllNotesOff(false)
	case Retune:
		if err := i.synth.Retune(ev.Divisions); err == nil {
			atomic.StoreInt64(&i.appliedDivs, int64(ev.Divisions))
		}
	}
}
