package audio

const (
	releaseDecay = 0.99  // per sample
	releaseFloor = 0.005 // voice is freed once the gain reaches this
)

// envelope is the exponential tail-off applied after a note is released. A zero gain means
// the tail hasn't started.
type envelope struct {
	gain float64
}

func (e *envelope) startRelease() {
	if e.gain == 0 {
		e.gain = 1.0
	}
}

func (e *envelope) releasing() bool { return e.gain > 0 }

// advance applies one sample of decay and reports whether the tail is still audible.
func (e *envelope) advance() bool {
	e.gain *= releaseDecay
	return e.gain > releaseFloor
}

func (e *envelope) reset() { e.gain = 0 }
