package audio

import "sync/atomic"

// Clock counts the samples rendered since the stream started. It is advanced by the sink after
// every audio callback and can be read from any goroutine to timestamp events.
type Clock struct {
	sampleRate float64
	samples    uint64
}

func NewClock(sampleRate float64) *Clock {
	return &Clock{sampleRate: sampleRate}
}

func (c *Clock) SampleRate() float64 { return c.sampleRate }

// Samples returns the stream position in samples.
func (c *Clock) Samples() uint64 {
	return atomic.LoadUint64(&c.samples)
}

// Time returns the stream position in seconds.
func (c *Clock) Time() float64 {
	return float64(c.Samples()) / c.sampleRate
}

// Advance moves the clock forward by n samples.
func (c *Clock) Advance(n int) {
	atomic.AddUint64(&c.samples, uint64(n))
}
