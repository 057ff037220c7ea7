package audio

import (
	"sync"
	"sync/atomic"
)

// EventBuffer is a bounded, time-ordered queue of events. Any number of goroutines may push;
// a single consumer drains. Producers hold the lock for a bounded time (at most one shift of the
// buffer) and the consumer never waits for it.
type EventBuffer struct {
	mu     sync.Mutex
	events []Event // ring, ordered by Time from head
	head   int
	n      int

	evicted   uint64
	contended uint64
}

func NewEventBuffer(size int) *EventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &EventBuffer{events: make([]Event, size)}
}

func (b *EventBuffer) at(i int) *Event {
	return &b.events[(b.head+i)&(len(b.events)-1)]
}

// Push inserts ev after all buffered events with the same or an earlier time. When the buffer
// is full the earliest event is evicted.
func (b *EventBuffer) Push(ev Event) error {
	if err := ev.validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.n == len(b.events) {
		b.head = (b.head + 1) & (len(b.events) - 1)
		b.n--
		atomic.AddUint64(&b.evicted, 1)
	}

	// upper bound: first index with a later time
	lo, hi := 0, b.n
	for lo < hi {
		mid := (lo + hi) / 2
		if b.at(mid).Time <= ev.Time {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for i := b.n; i > lo; i-- {
		*b.at(i) = *b.at(i - 1)
	}
	*b.at(lo) = ev
	b.n++
	return nil
}

// DrainDue removes all events with Time <= until and appends them to dst in order. If a
// producer currently holds the lock nothing is drained; the events are picked up by a later
// call. No allocation takes place as long as cap(dst) is at least the buffer size.
func (b *EventBuffer) DrainDue(until float64, dst []Event) []Event {
	if !b.mu.TryLock() {
		atomic.AddUint64(&b.contended, 1)
		return dst
	}
	for b.n > 0 {
		ev := b.at(0)
		if ev.Time > until {
			break
		}
		dst = append(dst, *ev)
		b.head = (b.head + 1) & (len(b.events) - 1)
		b.n--
	}
	b.mu.Unlock()
	return dst
}

func (b *EventBuffer) Cap() int { return len(b.events) }

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Evicted returns the number of events dropped because the buffer was full.
func (b *EventBuffer) Evicted() uint64 { return atomic.LoadUint64(&b.evicted) }

// Contended returns the number of drains skipped because a producer held the lock.
func (b *EventBuffer) Contended() uint64 { return atomic.LoadUint64(&b.contended) }
