package analysis

import (
	"errors"
	"fmt"
	"testing"
)

func TestDefaultDetectors(t *testing.T) {
	detectors := DefaultDetectors()

	want := map[string]Kind{
		"arbitrage": KindArbitrage,
		"livearb":   KindArbitrage,
		"kelly":     KindKelly,
		"edges":     KindEdge,
		"value":     KindValue,
		"steam":     KindSteam,
		"sharp":     KindSharp,
	}
	if len(detectors) != len(want) {
		t.Fatalf("expected %d detectors, got %d", len(want), len(detectors))
	}
	for name, kind := range want {
		d, ok := FindDetector(detectors, name)
		if !ok {
			t.Errorf("detector %s missing", name)
			continue
		}
		if d.Scorer.Kind() != kind {
			t.Errorf("%s kind = %s, want %s", name, d.Scorer.Kind(), kind)
		}
		if d.TopK <= 0 {
			t.Errorf("%s has no top-K", name)
		}
	}

	if _, ok := FindDetector(detectors, "nope"); ok {
		t.Error("unknown detector should not resolve")
	}
}

func TestAbsencesAdd(t *testing.T) {
	var a Absences
	a.Add(fmt.Errorf("%w: margin 0.001", ErrBelowThreshold))
	a.Add(fmt.Errorf("%w: 1 bookmakers", ErrInsufficientSample))
	a.Add(ErrNoMarket)
	a.Add(errors.New("boom"))
	a.Add(ErrBelowThreshold)

	if a.BelowThreshold != 2 || a.InsufficientSample != 1 || a.NoMarket != 1 || a.Other != 1 {
		t.Errorf("unexpected tally %+v", a)
	}
	if a.Total() != 5 {
		t.Errorf("Total = %d, want 5", a.Total())
	}
}
