// Package audio connects an engine to the outside world: offline rendering
// into WAV files and live playback through the system audio device.
//
// Both paths call Process from a single goroutine, which is the render
// thread for the lifetime of the render or playback.
package audio
