package audio

import (
	"errors"
	"math"
)

// Reference pitch: note 69 sounds at 440 Hz in every tuning.
const (
	refNote = 69
	refFreq = 440.0
)

var ErrInvalidDivisions = errors.New("divisions per octave must be a positive integer")

// Frequency maps a scale step to Hz in an equal division of the octave with the given number
// of steps. With 12 divisions this is standard midi note tuning. divisions must be > 0.
func Frequency(note, divisions int) float64 {
	return refFreq * math.Exp2(float64(note-refNote)/float64(divisions))
}
