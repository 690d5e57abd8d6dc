//go:build headless

package audio

import "errors"

// ErrNoDevice is returned by NewPlayer in headless builds.
var ErrNoDevice = errors.New("audio: built without audio device support")

// Player is unavailable in headless builds.
type Player struct{}

// NewPlayer always fails in headless builds.
func NewPlayer(Source, int, int) (*Player, error) { return nil, ErrNoDevice }

// Start does nothing.
func (p *Player) Start() {}

// Close does nothing.
func (p *Player) Close() error { return nil }
