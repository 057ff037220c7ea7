package midi

import (
	"testing"

	"github.com/mrdg/edo/audio"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestTranslate(t *testing.T) {
	type test struct {
		msg  gomidi.Message
		ok   bool
		want audio.Event
	}
	tests := []test{
		{
			msg:  gomidi.NoteOn(0, 69, 127),
			ok:   true,
			want: audio.NoteOnEvent(1.5, 69, 1),
		},
		{
			msg:  gomidi.NoteOn(3, 100, 0),
			ok:   true,
			want: audio.NoteOffEvent(1.5, 100),
		},
		{
			msg:  gomidi.NoteOff(0, 60),
			ok:   true,
			want: audio.NoteOffEvent(1.5, 60),
		},
		{
			msg:  gomidi.ControlChange(0, ccAllNotesOff, 0),
			ok:   true,
			want: audio.Event{Kind: audio.AllNotesOff, Time: 1.5},
		},
		{
			msg:  gomidi.ControlChange(9, ccAllSoundOff, 0),
			ok:   true,
			want: audio.Event{Kind: audio.AllSoundOff, Time: 1.5},
		},
		{
			msg: gomidi.ControlChange(0, 7, 100),
		},
		{
			msg: gomidi.Pitchbend(0, 100),
		},
	}
	for _, test := range tests {
		got, ok := Translate(test.msg, 1.5)
		if ok != test.ok {
			t.Errorf("%v: want ok %v, got %v", test.msg, test.ok, ok)
			continue
		}
		if ok && got != test.want {
			t.Errorf("%v: want %+v, got %+v", test.msg, test.want, got)
		}
	}
}

func TestTranslateVelocity(t *testing.T) {
	ev, ok := Translate(gomidi.NoteOn(0, 60, 64), 0)
	if !ok {
		t.Fatal("note on was ignored")
	}
	if want := 64.0 / 127; ev.Velocity != want {
		t.Errorf("want velocity %v, got %v", want, ev.Velocity)
	}
}

type recorder struct {
	clock  *audio.Clock
	events []audio.Event
}

func (r *recorder) Schedule(ev audio.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Clock() *audio.Clock { return r.clock }

func TestInputReceive(t *testing.T) {
	rec := &recorder{clock: audio.NewClock(48000)}
	rec.clock.Advance(24000)

	var monitored []audio.Event
	in := &Input{inst: rec, monitor: func(ev audio.Event) {
		monitored = append(monitored, ev)
	}}
	in.receive(gomidi.NoteOn(0, 62, 127), 0)
	in.receive(gomidi.ControlChange(0, 1, 64), 0)
	in.receive(gomidi.NoteOff(0, 62), 0)

	want := []audio.Event{
		audio.NoteOnEvent(0.5, 62, 1),
		audio.NoteOffEvent(0.5, 62),
	}
	if len(rec.events) != len(want) {
		t.Fatalf("want %d events, got %d", len(want), len(rec.events))
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d: want %+v, got %+v", i, want[i], rec.events[i])
		}
	}
	if len(monitored) != 2 {
		t.Errorf("want 2 monitored events, got %d", len(monitored))
	}
	if in.Received() != 2 || in.Failed() != 0 {
		t.Errorf("wrong counters: received %d, failed %d", in.Received(), in.Failed())
	}
}
