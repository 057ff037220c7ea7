package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

type Ticker interface {
	Tick(now float64, numSamples int)
}

// Output backends.
const (
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
	BackendNone      = "none"
)

const numChannels = 2

type stream interface {
	Start() error
	Close() error
}

// NewSink opens an output stream on the given backend. With BackendNone nothing is opened and
// the caller drives Process itself.
func NewSink(backend string, clock *Clock, bufferSize int) (*Sink, error) {
	s := &Sink{clock: clock}
	switch backend {
	case BackendPortAudio:
		stream, err := newPortAudioStream(s, clock.SampleRate(), bufferSize)
		if err != nil {
			return nil, err
		}
		s.stream = stream
	case BackendOto:
		stream, err := newOtoStream(s, int(clock.SampleRate()), bufferSize)
		if err != nil {
			return nil, err
		}
		s.stream = stream
	case BackendNone:
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", backend)
	}
	return s, nil
}

func (s *Sink) Start() error {
	if s.stream == nil {
		return nil
	}
	return s.stream.Start()
}

// Sink mixes all sources into the output stream once per audio callback.
type Sink struct {
	clock   *Clock
	sources []Source
	tickers []Ticker
	stream  stream
}

func (s *Sink) Stop() error {
	if s.stream == nil {
		return nil
	}
	return s.stream.Close()
}

func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Sink) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

// Process fills samples (one slice per channel) with the next block of audio.
func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	if len(samples) == 0 {
		return
	}
	n := len(samples[0])
	now := s.clock.Time()
	for _, ticker := range s.tickers {
		ticker.Tick(now, n)
	}
	for _, source := range s.sources {
		source.Process(samples)
	}
	s.clock.Advance(n)
}

type portAudioStream struct {
	*portaudio.Stream
}

func newPortAudioStream(s *Sink, sampleRate float64, bufferSize int) (*portAudioStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	stream, err := portaudio.OpenDefaultStream(0, numChannels, sampleRate, bufferSize, s.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	return &portAudioStream{stream}, nil
}

func (p *portAudioStream) Close() error {
	err := p.Stream.Close()
	portaudio.Terminate()
	return err
}
