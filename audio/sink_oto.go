package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoStream adapts the sink to oto's pull model: the oto player reads interleaved
// little-endian float32 frames from it.
type otoStream struct {
	sink   *Sink
	ctx    *oto.Context
	player *oto.Player

	// planar scratch, one slice per channel, sized to the largest read seen so far
	block [][]float32

	mu      sync.Mutex // only for setup and teardown
	started bool
}

func newOtoStream(s *Sink, sampleRate, bufferSize int) (*otoStream, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: numChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferSize) * time.Second / time.Duration(sampleRate),
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	o := &otoStream{sink: s, ctx: ctx}
	o.grow(bufferSize)
	o.player = ctx.NewPlayer(o)
	return o, nil
}

func (o *otoStream) grow(frames int) {
	o.block = make([][]float32, numChannels)
	for ch := range o.block {
		o.block[ch] = make([]float32, frames)
	}
}

// Read renders len(p) bytes worth of whole frames.
func (o *otoStream) Read(p []byte) (int, error) {
	const frameSize = 4 * numChannels
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	// This should rarely happen after the first read.
	if len(o.block[0]) < frames {
		o.grow(frames)
	}
	block := o.block
	for ch := range block {
		block[ch] = block[ch][:frames]
	}
	o.sink.Process(block)
	for i := 0; i < frames; i++ {
		for ch := range block {
			binary.LittleEndian.PutUint32(p[(i*numChannels+ch)*4:], math.Float32bits(block[ch][i]))
		}
	}
	for ch := range block {
		block[ch] = block[ch][:cap(block[ch])]
	}
	return frames * frameSize, nil
}

func (o *otoStream) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		o.player.Play()
		o.started = true
	}
	return nil
}

func (o *otoStream) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = false
	return o.player.Close()
}
