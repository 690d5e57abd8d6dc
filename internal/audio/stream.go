package audio

import (
	"encoding/binary"
	"math"
)

// Source renders blocks of stereo audio. *engine.Engine implements it.
type Source interface {
	Process(out [][]float64) int
}

// Channels is the number of output channels rendered.
const Channels = 2

// Stream is an io.Reader producing interleaved little-endian float32 stereo
// frames from a Source, block by block.
type Stream struct {
	src     Source
	block   [][]float64
	pending []byte
	buf     []byte
}

// NewStream returns a stream rendering blockSize frames at a time.
func NewStream(src Source, blockSize int) *Stream {
	blockSize = max(blockSize, 1)

	return &Stream{
		src:   src,
		block: [][]float64{make([]float64, blockSize), make([]float64, blockSize)},
		buf:   make([]byte, 0, blockSize*Channels*4),
	}
}

// Read fills p with whole samples, rendering new blocks as needed. It never
// returns an error.
func (s *Stream) Read(p []byte) (int, error) {
	n := 0

	for n+4 <= len(p) {
		if len(s.pending) == 0 {
			s.render()
		}

		c := copy(p[n:len(p)&^3], s.pending)
		s.pending = s.pending[c:]
		n += c
	}

	return n, nil
}

func (s *Stream) render() {
	frames := s.src.Process(s.block)
	if frames <= 0 {
		clear(s.block[0])
		clear(s.block[1])

		frames = len(s.block[0])
	}

	buf := s.buf[:0]
	for i := 0; i < frames; i++ {
		for ch := range Channels {
			v := float32(clip(s.block[ch][i]))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}

	s.pending = buf
}

func clip(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
