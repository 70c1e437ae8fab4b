package gate

import (
	"math"
	"testing"
)

func TestGateProceedBelowCeiling(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	for _, w := range []float64{0, 0.2038, 0.999999, 1.0, -0.3} {
		decision := g.Evaluate(w)
		if decision.Action != "proceed" {
			t.Fatalf("weight %v: expected proceed, got %s: %s", w, decision.Action, decision.Reason)
		}
		if decision.Vetoed {
			t.Fatalf("weight %v: should not be vetoed", w)
		}
	}
}

func TestGateHeadroom(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	decision := g.Evaluate(0.75)
	if decision.Headroom != 0.25 {
		t.Fatalf("expected headroom 0.25, got %v", decision.Headroom)
	}
}

func TestGateAbortAboveCeiling(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	decision := g.Evaluate(1.0001)

	if decision.Action != "abort" {
		t.Fatalf("expected abort, got %s", decision.Action)
	}
	if !decision.Vetoed {
		t.Fatal("should be vetoed")
	}
	if len(decision.VetoSignals) != 1 {
		t.Fatalf("expected 1 veto signal, got %d", len(decision.VetoSignals))
	}
	if decision.VetoSignals[0].Type != VetoDivergence {
		t.Fatalf("expected VetoDivergence, got %s", decision.VetoSignals[0].Type)
	}
}

func TestGateAbortOnNonFinite(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	for _, w := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		decision := g.Evaluate(w)
		if decision.Action != "abort" {
			t.Fatalf("weight %v: expected abort, got %s", w, decision.Action)
		}
		if decision.VetoSignals[0].Type != VetoNonFinite {
			t.Fatalf("weight %v: expected VetoNonFinite, got %s", w, decision.VetoSignals[0].Type)
		}
	}
}

func TestGateCustomCeiling(t *testing.T) {
	g := NewGate(GateConfig{MaxWeight: 0.5})
	if g.Config().MaxWeight != 0.5 {
		t.Fatalf("expected config to round-trip, got %v", g.Config().MaxWeight)
	}
	if d := g.Evaluate(0.6); d.Action != "abort" {
		t.Fatalf("expected abort above custom ceiling, got %s", d.Action)
	}
}
