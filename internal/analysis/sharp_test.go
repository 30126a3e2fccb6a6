package analysis

import (
	"errors"
	"testing"
	"time"
)

func TestSharpScorerLateNBAGame(t *testing.T) {
	commence := time.Date(2026, 10, 20, 23, 30, 0, 0, time.UTC)
	snap := snapshotFor(t, "basketball_nba", commence,
		q("Pinnacle", 1.78, 2.05),
		q("Betfair", 1.82, 2.02),
		q("DraftKings", 2.10, 1.80),
		q("FanDuel", 2.05, 1.82),
		q("BetMGM", 2.00, 1.85),
		q("Caesars", 2.08, 1.80),
		q("Bovada", 1.95, 1.90),
		q("Unibet", 1.90, 1.95),
	)

	opp, err := NewSharpScorer(DefaultSharpConfig()).Score(snap)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// sharp avg 1.80 vs soft avg 2.0575 on the home side
	if opp.Rating != "LOW" {
		t.Errorf("efficiency = %s, want LOW", opp.Rating)
	}
	if opp.Score != 100 {
		t.Errorf("Score = %f, want 100 (capped)", opp.Score)
	}
	if opp.Confidence != "VERY HIGH" {
		t.Errorf("Confidence = %s, want VERY HIGH", opp.Confidence)
	}
	leg := opp.Legs[0]
	if leg.Outcome != "Home" || leg.Bookmaker != "DraftKings" || leg.Price != 2.10 {
		t.Errorf("unexpected leg %+v", leg)
	}
	if opp.SoftAvg <= opp.SharpAvg {
		t.Errorf("expected soft avg %f above sharp avg %f", opp.SoftAvg, opp.SharpAvg)
	}
}

func TestSharpScorerAbsences(t *testing.T) {
	afternoon := time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		quotes []quote
		want   error
	}{
		{
			"efficient market",
			[]quote{
				q("Pinnacle", 1.95, 1.90),
				q("Betfair", 1.96, 1.89),
				q("DraftKings", 1.93, 1.91),
				q("FanDuel", 1.94, 1.90),
				q("BetMGM", 1.92, 1.92),
				q("Caesars", 1.93, 1.91),
			},
			ErrBelowThreshold,
		},
		{
			"no tiered books",
			[]quote{
				q("Alpha", 1.80, 2.05),
				q("Beta", 2.10, 1.80),
				q("Gamma", 1.95, 1.90),
				q("Delta", 1.90, 1.95),
				q("Epsilon", 2.00, 1.85),
				q("Zeta", 1.85, 2.00),
			},
			ErrInsufficientSample,
		},
		{
			"too few books",
			[]quote{q("Pinnacle", 1.80, 2.05), q("DraftKings", 2.10, 1.80)},
			ErrInsufficientSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshotFor(t, "soccer_epl", afternoon, tt.quotes...)
			_, err := NewSharpScorer(DefaultSharpConfig()).Score(snap)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMarketEfficiency(t *testing.T) {
	tests := []struct {
		ineff float64
		want  string
	}{
		{0.10, "LOW"},
		{0.05, "MEDIUM"},
		{0.01, "HIGH"},
	}
	for _, tt := range tests {
		if got := marketEfficiency(tt.ineff); got != tt.want {
			t.Errorf("marketEfficiency(%.2f) = %s, want %s", tt.ineff, got, tt.want)
		}
	}
}
