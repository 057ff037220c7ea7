package audio

import (
	"bytes"
	"io"
	"math"
	"testing"

	wav "github.com/youpy/go-wav"
	"gonum.org/v1/gonum/floats"
)

func TestRenderWAV(t *testing.T) {
	clock := NewClock(testSampleRate)
	inst, err := NewInstrument(NewProps(), clock, Config{SampleRate: testSampleRate})
	if err != nil {
		t.Fatal(err)
	}
	sink, err := NewSink(BackendNone, clock, 256)
	if err != nil {
		t.Fatal(err)
	}
	sink.AddSources(inst)
	inst.NoteOn(69, 1)

	const frames = 1000
	var out bytes.Buffer
	peak, err := RenderWAV(&out, sink, frames, 256)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(peak-headroom) > 1e-3 {
		t.Errorf("want peak near %v, got %v", headroom, peak)
	}

	r := wav.NewReader(bytes.NewReader(out.Bytes()))
	format, err := r.Format()
	if err != nil {
		t.Fatal(err)
	}
	if format.NumChannels != 2 || format.SampleRate != testSampleRate || format.BitsPerSample != 16 {
		t.Errorf("unexpected format: %+v", format)
	}

	var left, right []float64
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range samples {
			left = append(left, float64(s.Values[0])/32767)
			right = append(right, float64(s.Values[1])/32767)
		}
	}
	if len(left) != frames {
		t.Fatalf("want %d frames, got %d", frames, len(left))
	}
	if !floats.Equal(left, right) {
		t.Errorf("channels should be identical")
	}

	want := make([]float64, frames)
	delta := twoPi * 440 / testSampleRate
	for i := range want {
		want[i] = math.Sin(float64(i)*delta) * headroom
	}
	if !floats.EqualApprox(left, want, 1e-3) {
		t.Errorf("rendered audio does not match a 440 Hz sine")
	}
	if clock.Samples() != frames {
		t.Errorf("want clock at %d samples, got %d", frames, clock.Samples())
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},
		{-3, -32767},
		{math.NaN(), 0},
		{0.5, 16384},
	}
	for _, test := range tests {
		if got := quantize(test.in); got != test.want {
			t.Errorf("quantize(%v) = %v, want %v", test.in, got, test.want)
		}
	}
}
