// Package patch reads and writes patch files: YAML documents listing the
// nodes of a synth graph with their parameters and placement, and the
// connections between them.
//
//	nodes:
//	  - id: osc1
//	    kind: osc
//	    params: {freq: 220}
//	    x: 0
//	    y: 40
//	connections:
//	  - {from: osc1, from_chan: 0, to: out, to_chan: 0}
//
// Node state private to a kind, such as oscillator phase, is not stored.
package patch
