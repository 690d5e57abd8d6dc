//go:build !headless

package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player plays a Source on the default audio device.
type Player struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	stream *Stream
}

// NewPlayer opens the audio device at sampleRate. The device pulls blocks of
// blockSize frames from src on its own goroutine.
func NewPlayer(src Source, sampleRate, blockSize int) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("audio: open device: %w", err)
	}
	<-ready

	p := &Player{ctx: ctx, stream: NewStream(src, blockSize)}
	p.player = ctx.NewPlayer(p.stream)

	return p, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player != nil && !p.player.IsPlaying() {
		p.player.Play()
	}
}

// Close stops playback and releases the player.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}

	err := p.player.Close()
	p.player = nil

	return err
}
