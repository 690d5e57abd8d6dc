package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/wav"
	goaudio "github.com/go-audio/audio"
)

// WAVOptions describe an offline render.
type WAVOptions struct {
	SampleRate int
	BitDepth   int
	BlockSize  int
	Frames     int
	// Poll, when set, runs after every block. Use it to drive the engine's
	// control thread during an offline render.
	Poll func()
}

// ErrInvalidOptions is returned for unusable WAV options.
var ErrInvalidOptions = errors.New("audio: invalid wav options")

func (o WAVOptions) validate() error {
	switch {
	case o.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidOptions, o.SampleRate)
	case o.BitDepth != 16 && o.BitDepth != 24 && o.BitDepth != 32:
		return fmt.Errorf("%w: bit depth %d", ErrInvalidOptions, o.BitDepth)
	case o.BlockSize <= 0:
		return fmt.Errorf("%w: block size %d", ErrInvalidOptions, o.BlockSize)
	case o.Frames < 0:
		return fmt.Errorf("%w: frames %d", ErrInvalidOptions, o.Frames)
	}

	return nil
}

// WriteWAV renders o.Frames stereo frames from src and encodes them as PCM.
func WriteWAV(w io.WriteSeeker, src Source, o WAVOptions) error {
	err := o.validate()
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(w, o.SampleRate, o.BitDepth, Channels, 1)

	buf := &goaudio.Float32Buffer{
		Format:         &goaudio.Format{SampleRate: o.SampleRate, NumChannels: Channels},
		Data:           make([]float32, 0, o.BlockSize*Channels),
		SourceBitDepth: o.BitDepth,
	}

	block := [][]float64{make([]float64, o.BlockSize), make([]float64, o.BlockSize)}

	for done := 0; done < o.Frames; {
		want := min(o.BlockSize, o.Frames-done)
		out := [][]float64{block[0][:want], block[1][:want]}

		frames := src.Process(out)
		if frames <= 0 {
			return fmt.Errorf("audio: source rendered no frames at %d", done)
		}

		buf.Data = buf.Data[:0]
		for i := 0; i < frames; i++ {
			buf.Data = append(buf.Data, float32(clip(out[0][i])), float32(clip(out[1][i])))
		}

		err = enc.Write(buf)
		if err != nil {
			return fmt.Errorf("audio: write wav: %w", err)
		}

		done += frames

		if o.Poll != nil {
			o.Poll()
		}
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("audio: close wav: %w", err)
	}

	return nil
}
