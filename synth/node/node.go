package node

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Context provides the environment a node prepares for.
type Context struct {
	SampleRate float64
	BlockSize  int
}

// ContextFrom converts an algo-dsp processor config.
func ContextFrom(cfg dspcore.ProcessorConfig) Context {
	return Context{SampleRate: cfg.SampleRate, BlockSize: cfg.BlockSize}
}

// DefaultContext returns the algo-dsp processor defaults.
func DefaultContext() Context {
	return ContextFrom(dspcore.DefaultProcessorConfig())
}

// Block is the per-call view a node renders through.
//
// In and Out are indexed by flat channel index and hold Frames samples each.
// Connected reports, per flat input, whether a connection terminates there;
// it is fixed for the duration of the block.
type Block struct {
	In        [][]float64
	Out       [][]float64
	Frames    int
	Connected []bool
}

// IsConnected reports whether flat input ch has an incoming connection.
func (b *Block) IsConnected(ch int) bool {
	return ch >= 0 && ch < len(b.Connected) && b.Connected[ch]
}

// Node is the contract every processing unit implements.
type Node interface {
	// Ports describes the input and output buses.
	Ports() Ports
	// Parameters describes the parameters.
	Parameters() []ParamDescriptor
	// Params returns the current parameter values.
	Params() *Params
	// ModulationRoute maps a virtual modulation identifier to an input
	// channel. It is a pure function of virtualID for the node's lifetime.
	ModulationRoute(virtualID string) (Route, bool)
	// Prepare is called on the control thread before the node renders and
	// whenever the context changes.
	Prepare(ctx Context) error
	// Render processes one block. See the package documentation for the
	// render contract.
	Render(b *Block)
	// MarshalState encodes private state beyond parameter values. It may
	// run concurrently with Render.
	MarshalState() ([]byte, error)
	// UnmarshalState restores state produced by MarshalState before the
	// node renders.
	UnmarshalState(data []byte) error
	// Telemetry returns the node's live values.
	Telemetry() *Telemetry
}

// InPlacer is implemented by nodes that render in place. Each pair is
// (output, input) in flat indices; the scheduler gives that output the same
// storage as that input. The node must read the input before writing the
// output.
type InPlacer interface {
	InPlace() [][2]int
}

// Sink is implemented by nodes whose outputs are the graph's final audio.
type Sink interface {
	Sink() bool
}
