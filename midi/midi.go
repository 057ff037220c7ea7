// Package midi feeds note messages from a MIDI input port into an instrument.
package midi

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/mrdg/edo/audio"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
)

// Instrument is the receiving end of an Input.
type Instrument interface {
	Schedule(audio.Event) error
	Clock() *audio.Clock
}

// Translate converts a MIDI message into an instrument event at time now. Messages that have
// no meaning to the instrument are ignored. Note numbers are passed through unchanged, so
// they address steps of the current tuning rather than 12-TET pitches.
func Translate(msg gomidi.Message, now float64) (audio.Event, bool) {
	var channel, key, velocity, controller, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		return audio.NoteOnEvent(now, int(key), float64(velocity)/127), true
	case msg.GetNoteEnd(&channel, &key):
		return audio.NoteOffEvent(now, int(key)), true
	case msg.GetControlChange(&channel, &controller, &value):
		switch controller {
		case ccAllNotesOff:
			return audio.Event{Kind: audio.AllNotesOff, Time: now}, true
		case ccAllSoundOff:
			return audio.Event{Kind: audio.AllSoundOff, Time: now}, true
		}
	}
	return audio.Event{}, false
}

// Input listens on a MIDI port and schedules incoming notes on an instrument.
type Input struct {
	port    drivers.In
	inst    Instrument
	monitor func(audio.Event)
	stop    func()

	received uint64
	failed   uint64
}

// Open starts listening on the first input port whose name contains name. An empty name
// selects the first available port. If monitor is not nil it is called for every event
// passed to the instrument.
func Open(name string, inst Instrument, monitor func(audio.Event)) (*Input, error) {
	port, err := findPort(name)
	if err != nil {
		return nil, err
	}
	in := &Input{
		port:    port,
		inst:    inst,
		monitor: monitor,
	}
	stop, err := gomidi.ListenTo(port, in.receive, gomidi.HandleError(func(err error) {
		log.Printf("midi: %s: %v", port, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen to %s: %w", port, err)
	}
	in.stop = stop
	return in, nil
}

func findPort(name string) (drivers.In, error) {
	ports := gomidi.GetInPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("no midi input ports available")
	}
	if name == "" {
		return ports[0], nil
	}
	if port, err := gomidi.FindInPort(name); err == nil {
		return port, nil
	}
	for _, port := range ports {
		if strings.Contains(strings.ToLower(port.String()), strings.ToLower(name)) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no midi input port matching %q", name)
}

func (in *Input) receive(msg gomidi.Message, timestampms int32) {
	ev, ok := Translate(msg, in.inst.Clock().Time())
	if !ok {
		return
	}
	atomic.AddUint64(&in.received, 1)
	if err := in.inst.Schedule(ev); err != nil {
		atomic.AddUint64(&in.failed, 1)
		return
	}
	if in.monitor != nil {
		in.monitor(ev)
	}
}

// Port returns the name of the port the input listens on.
func (in *Input) Port() string { return in.port.String() }

// Received returns the number of messages translated into events.
func (in *Input) Received() uint64 { return atomic.LoadUint64(&in.received) }

// Failed returns the number of events the instrument rejected.
func (in *Input) Failed() uint64 { return atomic.LoadUint64(&in.failed) }

func (in *Input) Close() error {
	if in.stop != nil {
		in.stop()
	}
	return nil
}

// Ports lists the names of all MIDI input ports.
func Ports() []string {
	var names []string
	for _, port := range gomidi.GetInPorts() {
		names = append(names, port.String())
	}
	return names
}

// CloseDriver releases the MIDI driver. It should be called once on exit.
func CloseDriver() {
	gomidi.CloseDriver()
}
