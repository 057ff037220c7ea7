package audio

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestEventBufferDue(t *testing.T) {
	buf := NewEventBuffer(8)
	buf.Push(NoteOnEvent(2, 60, 1))
	buf.Push(NoteOnEvent(3, 62, 1))

	events := buf.DrainDue(1.5, nil)
	if want, got := 0, len(events); want != got {
		t.Errorf("expected zero events, got %v", got)
	}

	events = buf.DrainDue(3, events)
	if want, got := 2, len(events); want != got {
		t.Errorf("expected %v events, got %v", want, got)
	}
	if want, got := 0, buf.Len(); want != got {
		t.Errorf("expected empty buffer, got %v events", got)
	}
}

func TestEventBufferOrder(t *testing.T) {
	buf := NewEventBuffer(8)
	buf.Push(NoteOnEvent(0.5, 1, 1))
	buf.Push(NoteOnEvent(0.1, 2, 1))
	buf.Push(NoteOffEvent(0.5, 3))
	buf.Push(NoteOnEvent(0.3, 4, 1))
	buf.Push(NoteOffEvent(0.5, 5))
	buf.Push(NoteOnEvent(0.9, 6, 1))

	var notes []int
	for _, ev := range buf.DrainDue(0.5, nil) {
		notes = append(notes, ev.Note)
	}
	// equal timestamps keep their arrival order
	if want := []int{2, 4, 1, 3, 5}; !reflect.DeepEqual(want, notes) {
		t.Errorf("wrong order: want %v, got %v", want, notes)
	}
	if want, got := 1, buf.Len(); want != got {
		t.Errorf("want %v buffered events, got %v", want, got)
	}
}

func TestEventBufferEvictsOldest(t *testing.T) {
	buf := NewEventBuffer(4)
	for n := 0; n < 6; n++ {
		buf.Push(NoteOnEvent(float64(n), n, 1))
	}
	if want, got := uint64(2), buf.Evicted(); want != got {
		t.Errorf("want %v evicted events, got %v", want, got)
	}

	var notes []int
	for _, ev := range buf.DrainDue(math.MaxFloat64, nil) {
		notes = append(notes, ev.Note)
	}
	if want := []int{2, 3, 4, 5}; !reflect.DeepEqual(want, notes) {
		t.Errorf("wrong events after eviction: want %v, got %v", want, notes)
	}
}

func TestEventBufferRejectsInvalid(t *testing.T) {
	buf := NewEventBuffer(4)
	tests := []Event{
		{Kind: NoteOn, Time: math.NaN()},
		{Kind: NoteOff, Time: math.Inf(1)},
		{Kind: 0, Time: 1},
		{Kind: Retune + 1, Time: 1},
		{Kind: Retune, Divisions: 0, Time: 1},
	}
	for _, ev := range tests {
		if err := buf.Push(ev); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("Push(%+v): want ErrInvalidEvent, got %v", ev, err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("invalid events were buffered")
	}
}

func TestEventBufferContended(t *testing.T) {
	buf := NewEventBuffer(4)
	buf.Push(NoteOnEvent(0, 60, 1))

	buf.mu.Lock()
	events := buf.DrainDue(1, nil)
	buf.mu.Unlock()

	if len(events) != 0 {
		t.Errorf("drain should not wait for a held lock, got %v", events)
	}
	if want, got := uint64(1), buf.Contended(); want != got {
		t.Errorf("want %v contended drains, got %v", want, got)
	}
	if want, got := 1, len(buf.DrainDue(1, nil)); want != got {
		t.Errorf("event should be delivered on the next drain, got %v", got)
	}
}

func TestEventBufferDrainDoesNotAllocate(t *testing.T) {
	buf := NewEventBuffer(16)
	dst := make([]Event, 0, buf.Cap())
	allocs := testing.AllocsPerRun(100, func() {
		for n := 0; n < 16; n++ {
			buf.Push(NoteOnEvent(float64(n), n, 1))
		}
		dst = buf.DrainDue(100, dst[:0])
	})
	if allocs != 0 {
		t.Errorf("want zero allocations, got %v", allocs)
	}
}

func TestEventBuffer(t *testing.T) {
	const numEvents = 100_000
	buf := NewEventBuffer(1 << 17)

	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	var events []Event
	go func() {
		for {
			select {
			case <-ctx.Done():
				for buf.Len() > 0 {
					events = buf.DrainDue(math.MaxFloat64, events)
				}
				done <- struct{}{}
				return
			default:
				events = buf.DrainDue(math.MaxFloat64, events)
			}
		}
	}()

	for n := 0; n < numEvents; n++ {
		buf.Push(NoteOnEvent(float64(n), n, 1))
	}

	cancel()
	<-done

	if len(events) != numEvents {
		t.Errorf("wrong number of events: want %v, got %v", numEvents, len(events))
	}

	prev := -1
	for _, ev := range events {
		if want, got := prev+1, ev.Note; want != got {
			t.Errorf("discontinuous event: want: %v, got %v", want, got)
			break
		}
		prev++
	}
	if buf.Evicted() != 0 {
		t.Errorf("no events should have been evicted, got %v", buf.Evicted())
	}
}
