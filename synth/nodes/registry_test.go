package nodes

import (
	"slices"
	"testing"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

func TestDefaultRegistryKinds(t *testing.T) {
	t.Parallel()

	want := []string{
		KindAnalyzer, KindChorus, KindClock, KindConst, KindEnv, KindFilter,
		KindLFO, KindMeter, KindMixer, KindOsc, KindOutput, KindVCA,
	}

	if got := DefaultRegistry().Kinds(); !slices.Equal(got, want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	if err := Register(r); err == nil {
		t.Fatal("expected error registering built-in kinds twice")
	}
}

func TestModulationRoutesTargetCVInputs(t *testing.T) {
	t.Parallel()

	for _, kind := range DefaultRegistry().Kinds() {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()

			n := newNode(t, kind, node.DefaultContext())

			for _, d := range n.Parameters() {
				if d.ModID == "" {
					continue
				}

				r, ok := n.ModulationRoute(d.ModID)
				if !ok {
					t.Fatalf("%s: no route", d.ModID)
				}

				flat, ok := n.Ports().InputIndex(r)
				if !ok {
					t.Fatalf("%s: route %+v is not an input", d.ModID, r)
				}

				if ch, _ := n.Ports().Input(flat); ch.Type != node.CV {
					t.Fatalf("%s: routes to %s input", d.ModID, ch.Type)
				}

				// Pure: asking twice gives the same answer.
				if again, _ := n.ModulationRoute(d.ModID); again != r {
					t.Fatalf("%s: route changed between calls", d.ModID)
				}
			}
		})
	}
}

func TestEveryKindRendersSilenceSafely(t *testing.T) {
	t.Parallel()

	ctx := node.DefaultContext()

	for _, kind := range DefaultRegistry().Kinds() {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()

			n := newNode(t, kind, ctx)
			b := newBlock(n, ctx.BlockSize)

			for range 4 {
				n.Render(b)
			}

			for _, out := range b.Out {
				for i, v := range out {
					if v != v || v > 1e6 || v < -1e6 {
						t.Fatalf("out[%d] = %v", i, v)
					}
				}
			}

			data, err := n.MarshalState()
			if err != nil {
				t.Fatalf("MarshalState: %v", err)
			}

			if err := n.UnmarshalState(data); err != nil {
				t.Fatalf("UnmarshalState(own state): %v", err)
			}
		})
	}
}
