// Package nodes provides the built-in node kinds.
//
// Every kind is built on node.Base and follows the render contract of
// package node: no allocation, no blocking, out-of-range input is clamped.
// Modulation inputs are CV channels named after their parameter's
// modulation id and are only read when connected.
//
// Kinds:
//
//	osc       audio oscillator (freq_mod, amp_mod)
//	lfo       low-frequency CV oscillator (rate_mod)
//	vca       in-place amplifier (gain_mod)
//	mixer     four-input audio mixer
//	filter    biquad low-pass (cutoff_mod)
//	chorus    in-place chorus effect (mix_mod)
//	const     constant CV source
//	clock     gate and trigger pulse generator (bpm_mod)
//	env       attack/release envelope driven by a gate
//	analyzer  FFT peak frequency, spectral centroid and RMS, in-place pass-through
//	meter     stereo BS.1770 loudness and peak meter, in-place pass-through
//	output    stereo sink
package nodes
