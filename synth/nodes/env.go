package nodes

import (
	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

const (
	envAttack = iota
	envRelease
)

// Env is a linear attack/release envelope. It rises towards 1 while the gate
// input is above 0.5 and falls towards 0 otherwise.
type Env struct {
	node.Base

	sampleRate float64
	level      float64 // render thread only
	telemetry  *bridge.Cell
}

// NewEnv returns an envelope node.
func NewEnv(node.Context) (node.Node, error) {
	e := &Env{}

	err := e.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("gate", node.Gate, "gate")},
			Outputs: []node.Bus{node.NewBus("out", node.CV, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "attack", Name: "Attack", Min: 0.001, Max: 10, Default: 0.01},
			{ID: "release", Name: "Release", Min: 0.001, Max: 10, Default: 0.2},
		},
		Telemetry: []string{"level"},
	})
	if err != nil {
		return nil, err
	}

	e.telemetry, _ = e.Telemetry().Lookup("level")

	return e, nil
}

// Prepare implements node.Node.
func (e *Env) Prepare(ctx node.Context) error {
	e.sampleRate = ctx.SampleRate
	return nil
}

// Render implements node.Node.
func (e *Env) Render(b *node.Block) {
	up := 1 / (e.Param(envAttack) * e.sampleRate)
	down := 1 / (e.Param(envRelease) * e.sampleRate)

	gate, out := b.In[0][:b.Frames], b.Out[0][:b.Frames]
	for i, g := range gate {
		if g > 0.5 {
			e.level = min(e.level+up, 1)
		} else {
			e.level = max(e.level-down, 0)
		}

		out[i] = e.level
	}

	e.telemetry.Store(e.level)
}

type envState struct {
	Level float64 `json:"level"`
}

// MarshalState implements node.Node.
func (e *Env) MarshalState() ([]byte, error) {
	return marshalState("env", envState{Level: e.telemetry.Load()})
}

// UnmarshalState implements node.Node.
func (e *Env) UnmarshalState(data []byte) error {
	s := envState{Level: e.telemetry.Load()}
	if err := unmarshalState("env", data, &s); err != nil {
		return err
	}

	e.level = min(max(s.Level, 0), 1)
	e.telemetry.Store(e.level)

	return nil
}
