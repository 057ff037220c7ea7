package audio

import (
	"fmt"
	"io"
	"math"

	wav "github.com/youpy/go-wav"
	"gonum.org/v1/gonum/floats"
)

const bitsPerSample = 16

// RenderWAV drives s for the given number of frames in blocks of blockSize and writes the
// result to w as 16 bit stereo PCM. s should not be attached to a running stream. It returns
// the peak absolute sample value of the rendered audio.
func RenderWAV(w io.Writer, s *Sink, frames, blockSize int) (float64, error) {
	if frames < 0 || blockSize < 1 {
		return 0, fmt.Errorf("invalid render size: %d frames in blocks of %d", frames, blockSize)
	}
	block := make([][]float32, numChannels)
	for ch := range block {
		block[ch] = make([]float32, blockSize)
	}
	left := make([]float64, 0, frames)
	right := make([]float64, 0, frames)

	for done := 0; done < frames; done += blockSize {
		n := blockSize
		if frames-done < n {
			n = frames - done
		}
		for ch := range block {
			block[ch] = block[ch][:n]
		}
		s.Process(block)
		for i := 0; i < n; i++ {
			left = append(left, float64(block[0][i]))
			right = append(right, float64(block[1][i]))
		}
	}

	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = quantize(left[i])
		samples[i].Values[1] = quantize(right[i])
	}
	ww := wav.NewWriter(w, uint32(frames), numChannels, uint32(s.clock.SampleRate()), bitsPerSample)
	if err := ww.WriteSamples(samples); err != nil {
		return 0, fmt.Errorf("write wav: %w", err)
	}
	return peak(left, right), nil
}

func peak(channels ...[]float64) float64 {
	var p float64
	for _, ch := range channels {
		if len(ch) == 0 {
			continue
		}
		p = math.Max(p, math.Max(floats.Max(ch), -floats.Min(ch)))
	}
	return p
}

func quantize(v float64) int {
	const scale = 1<<(bitsPerSample-1) - 1
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return int(math.Round(v * scale))
}
