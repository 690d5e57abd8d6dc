package nodes

import (
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// Kind names of the built-in nodes.
const (
	KindOsc      = "osc"
	KindLFO      = "lfo"
	KindVCA      = "vca"
	KindMixer    = "mixer"
	KindFilter   = "filter"
	KindChorus   = "chorus"
	KindConst    = "const"
	KindClock    = "clock"
	KindEnv      = "env"
	KindAnalyzer = "analyzer"
	KindMeter    = "meter"
	KindOutput   = "output"
)

// Register adds every built-in kind to r.
func Register(r *node.Registry) error {
	kinds := []struct {
		kind    string
		factory node.Factory
	}{
		{KindOsc, NewOsc},
		{KindLFO, NewLFO},
		{KindVCA, NewVCA},
		{KindMixer, NewMixer},
		{KindFilter, NewFilter},
		{KindChorus, NewChorus},
		{KindConst, NewConst},
		{KindClock, NewClock},
		{KindEnv, NewEnv},
		{KindAnalyzer, NewAnalyzer},
		{KindMeter, NewMeter},
		{KindOutput, NewOutput},
	}

	for _, k := range kinds {
		err := r.Register(k.kind, k.factory)
		if err != nil {
			return err
		}
	}

	return nil
}

// DefaultRegistry returns a Registry pre-populated with all built-in kinds.
func DefaultRegistry() *node.Registry {
	r := node.NewRegistry()
	if err := Register(r); err != nil {
		panic("nodes: " + err.Error())
	}

	return r
}
