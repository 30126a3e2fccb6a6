package analysis

import (
	"errors"
	"strings"
	"testing"
)

func TestSteamScorerPicksMostDispersedSide(t *testing.T) {
	snap := snapshot(t,
		q("B1", 1.50, 2.60),
		q("B2", 1.60, 2.50),
		q("B3", 2.40, 1.60),
		q("B4", 1.55, 2.55),
		q("B5", 2.50, 1.55),
	)

	opp, err := NewSteamScorer(DefaultSteamConfig()).Score(snap)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// away variance 0.28675 beats home 0.2455
	leg := opp.Legs[0]
	if leg.Outcome != "Away" || leg.Bookmaker != "B1" || leg.Price != 2.60 {
		t.Errorf("unexpected leg %+v", leg)
	}
	if opp.Rating != "STRONG STEAM" {
		t.Errorf("Rating = %s, want STRONG STEAM", opp.Rating)
	}
	if opp.Score != 10 {
		t.Errorf("Score = %f, want 10 (clamped)", opp.Score)
	}
	if !strings.HasPrefix(opp.Recommendation, "FOLLOW") {
		t.Errorf("Recommendation = %q, want FOLLOW", opp.Recommendation)
	}
}

func TestSteamScorerAbsences(t *testing.T) {
	tests := []struct {
		name   string
		quotes []quote
		want   error
	}{
		{
			"tight market",
			[]quote{q("B1", 1.90, 1.95), q("B2", 1.92, 1.93), q("B3", 1.91, 1.94), q("B4", 1.90, 1.96)},
			ErrBelowThreshold,
		},
		{
			"too few books",
			[]quote{q("B1", 1.50, 2.60), q("B2", 2.40, 1.60), q("B3", 1.60, 2.50)},
			ErrInsufficientSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSteamScorer(DefaultSteamConfig()).Score(snapshot(t, tt.quotes...))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSteamInterpretation(t *testing.T) {
	tests := []struct {
		move float64
		want string
	}{
		{0.30, "STRONG STEAM"},
		{0.20, "MODERATE STEAM"},
		{0.12, "MILD MOVEMENT"},
		{0.05, "MARKET NOISE"},
	}
	for _, tt := range tests {
		if got := steamInterpretation(tt.move); got != tt.want {
			t.Errorf("steamInterpretation(%.2f) = %s, want %s", tt.move, got, tt.want)
		}
	}
}
