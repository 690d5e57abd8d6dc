package node

import (
	"errors"
	"math"
	"testing"
)

func TestCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src, dst ChannelType
		want     bool
	}{
		{Audio, Audio, true},
		{Audio, CV, true},
		{Audio, Gate, false},
		{Audio, Trigger, false},
		{CV, Audio, true},
		{CV, Gate, false},
		{Gate, Trigger, true},
		{Gate, CV, true},
		{Gate, Audio, false},
		{Trigger, Gate, true},
		{Trigger, CV, false},
		{Raw, Gate, true},
		{Trigger, Raw, true},
	}

	for _, tc := range tests {
		if got := Compatible(tc.src, tc.dst); got != tc.want {
			t.Errorf("Compatible(%s, %s) = %v, want %v", tc.src, tc.dst, got, tc.want)
		}
	}
}

func TestChannelTypeClass(t *testing.T) {
	t.Parallel()

	if Raw.String() != "raw" || ChannelType(9).String() != "channel(9)" {
		t.Fatalf("names = %s, %s", Raw, ChannelType(9))
	}

	if !CV.IsModulation() || Audio.IsModulation() {
		t.Fatal("only CV belongs to the modulation class")
	}
}

func TestPortsFlatIndex(t *testing.T) {
	t.Parallel()

	p := modSpec().Ports

	if p.NumInputs() != 4 || p.NumOutputs() != 1 {
		t.Fatalf("NumInputs/NumOutputs = %d/%d, want 4/1", p.NumInputs(), p.NumOutputs())
	}

	i, ok := p.InputIndex(Route{Bus: 1, Channel: 0})
	if !ok || i != 3 {
		t.Fatalf("InputIndex(1/0) = %d,%v want 3,true", i, ok)
	}

	r, ok := p.LocateInput(2)
	if !ok || r != (Route{Bus: 0, Channel: 2}) {
		t.Fatalf("LocateInput(2) = %+v,%v", r, ok)
	}

	if _, ok := p.LocateInput(4); ok {
		t.Fatal("LocateInput(4) should fail")
	}

	if _, ok := p.InputIndex(Route{Bus: 0, Channel: 3}); ok {
		t.Fatal("InputIndex(0/3) should fail")
	}

	ch, ok := p.Input(3)
	if !ok || ch.Type != Gate {
		t.Fatalf("Input(3) = %+v,%v", ch, ok)
	}

	if _, ok := p.Output(-1); ok {
		t.Fatal("Output(-1) should fail")
	}
}

func TestParamsClampAndDefaults(t *testing.T) {
	t.Parallel()

	p := NewParams(modSpec().Params)

	if v, _ := p.Get("x"); v != 5 {
		t.Fatalf("default x = %v, want 5", v)
	}

	if err := p.Set("x", 42); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if v, _ := p.Get("x"); v != 10 {
		t.Fatalf("clamped x = %v, want 10", v)
	}

	if err := p.Set("x", math.NaN()); err != nil {
		t.Fatalf("Set NaN: %v", err)
	}

	if v, _ := p.Get("x"); v != 5 {
		t.Fatalf("NaN should fall back to default, got %v", v)
	}

	if err := p.Set("missing", 1); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Set(missing) err = %v, want ErrUnknownParam", err)
	}

	if p.Value(99) != 0 {
		t.Fatal("Value out of range should be 0")
	}

	_ = p.Set("level", 0.5)
	p.Reset()

	vals := p.Values()
	if vals["level"] != 0 || vals["x"] != 5 {
		t.Fatalf("Reset values = %v", vals)
	}
}

func TestBaseInitValidation(t *testing.T) {
	t.Parallel()

	t.Run("route outside ports", func(t *testing.T) {
		t.Parallel()

		spec := modSpec()
		spec.Routes = map[string]Route{"x_mod": {Bus: 0, Channel: 7}}

		var b Base
		if err := b.Init(spec); err == nil {
			t.Fatal("expected error for route outside ports")
		}
	})

	t.Run("mod id without route", func(t *testing.T) {
		t.Parallel()

		spec := modSpec()
		spec.Routes = nil

		var b Base
		if err := b.Init(spec); err == nil {
			t.Fatal("expected error for unrouted modulation id")
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		t.Parallel()

		spec := modSpec()
		spec.Params[1].Min, spec.Params[1].Max = 1, -1

		var b Base
		if err := b.Init(spec); err == nil {
			t.Fatal("expected error for min > max")
		}
	})
}

func TestBaseModulation(t *testing.T) {
	t.Parallel()

	n, err := newTestNode(DefaultContext())
	if err != nil {
		t.Fatalf("newTestNode: %v", err)
	}

	tn := n.(*testNode)

	r, ok := n.ModulationRoute("x_mod")
	if !ok || r != (Route{Bus: 0, Channel: 2}) {
		t.Fatalf("ModulationRoute = %+v,%v", r, ok)
	}

	if _, ok := n.ModulationRoute("x"); ok {
		t.Fatal("base identifier must not resolve as a route")
	}

	in := [][]float64{{0}, {0}, {0.25}, {0}}
	blk := &Block{In: in, Frames: 1, Connected: []bool{false, false, false, false}}

	if _, ok := tn.Modulation(blk, "x_mod"); ok {
		t.Fatal("unconnected modulation must not resolve")
	}

	blk.Connected[2] = true

	mod, ok := tn.Modulation(blk, "x_mod")
	if !ok || mod[0] != 0.25 {
		t.Fatalf("Modulation = %v,%v", mod, ok)
	}

	names := n.Telemetry().Names()
	if len(names) != 2 || names[0] != TelemetryPeak || names[1] != "level" {
		t.Fatalf("telemetry names = %v", names)
	}

	if err := n.UnmarshalState([]byte{1}); !errors.Is(err, ErrUnexpectedState) {
		t.Fatalf("UnmarshalState err = %v", err)
	}
}

func TestTelemetryCells(t *testing.T) {
	t.Parallel()

	tel := NewTelemetry("a", "b", "a")
	if len(tel.Names()) != 2 {
		t.Fatalf("duplicate names not collapsed: %v", tel.Names())
	}

	tel.Cell(1).Store(3)

	c, ok := tel.Lookup("b")
	if !ok || c.Load() != 3 {
		t.Fatal("Lookup(b) did not observe stored value")
	}

	if got := tel.Read(); got["a"] != 0 || got["b"] != 3 {
		t.Fatalf("Read() = %v", got)
	}
}
