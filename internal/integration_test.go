package internal

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/ledger"
	"odds-edge-bot/internal/odds"
)

func bookmaker(name string, home, away float64) api.Bookmaker {
	return api.Bookmaker{
		Key:   name,
		Title: name,
		Markets: []api.Market{{Key: api.MarketH2H, Outcomes: []api.Outcome{
			{Name: "Lakers", Price: home},
			{Name: "Celtics", Price: away},
		}}},
	}
}

// createMockGame simulates a Lakers vs Celtics game quoted by several books
// whose best prices disagree enough to form an arbitrage.
func createMockGame() api.Game {
	return api.Game{
		ID:           "game-1",
		SportKey:     "basketball_nba",
		CommenceTime: time.Date(2026, 10, 20, 23, 30, 0, 0, time.UTC),
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		Bookmakers: []api.Bookmaker{
			bookmaker("Pinnacle", 1.95, 1.95),
			bookmaker("DraftKings", 2.10, 1.80),
			bookmaker("FanDuel", 1.75, 2.20),
			bookmaker("BetMGM", 1.90, 1.95),
		},
	}
}

// TestFullPipeline tests the flow from API response to ranked opportunities.
func TestFullPipeline(t *testing.T) {
	snap, err := odds.Aggregate(createMockGame())
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.BookCount != 4 {
		t.Errorf("BookCount = %d, want 4", snap.BookCount)
	}

	h2h := snap.H2H()
	if len(h2h) != 2 {
		t.Fatalf("expected 2 h2h outcomes, got %d", len(h2h))
	}
	t.Logf("Lakers best %.2f (%s), Celtics best %.2f (%s), overround %.2f%%",
		h2h[0].Best, h2h[0].BestBook, h2h[1].Best, h2h[1].BestBook, snap.Overround*100)

	// no-vig probabilities from mean prices sum to 1
	fair := odds.RemoveVig(odds.DecimalToImplied(h2h[0].Mean), odds.DecimalToImplied(h2h[1].Mean))
	if math.Abs(fair[0]+fair[1]-1.0) > 1e-9 {
		t.Errorf("fair probabilities should sum to 1.0, got %.6f", fair[0]+fair[1])
	}

	found := 0
	for _, d := range analysis.DefaultDetectors() {
		opp, err := d.Scorer.Score(snap)
		if err != nil {
			t.Logf("%s: %v", d.Name, err)
			continue
		}
		found++
		t.Logf("%s: score %.2f, %d legs", d.Name, opp.Score, len(opp.Legs))
	}
	if found == 0 {
		t.Error("expected at least one detector to fire")
	}

	arb, err := analysis.NewArbitrageScorer(analysis.DefaultArbitrageConfig()).Score(snap)
	if err != nil {
		t.Fatalf("expected an arbitrage: %v", err)
	}
	// 1/2.10 + 1/2.20 = 0.9307, margin 7.45%
	if math.Abs(arb.ProfitMargin-(1/(1/2.10+1/2.20)-1)) > 1e-9 {
		t.Errorf("margin = %.4f", arb.ProfitMargin)
	}
	var staked float64
	for _, leg := range arb.Legs {
		staked += leg.Stake
		if math.Abs(leg.Payout-arb.Legs[0].Payout) > 1e-9 {
			t.Errorf("legs should pay the same: %.4f vs %.4f", leg.Payout, arb.Legs[0].Payout)
		}
	}
	if math.Abs(staked-arb.TotalStake) > 1e-9 {
		t.Errorf("stakes sum to %.4f, want %.2f", staked, arb.TotalStake)
	}
}

// TestBetTrackingAndHedge tests bet storage and hedge detection together.
func TestBetTrackingAndHedge(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test_ledger_*.db")
	if err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	db, err := ledger.NewDB(tmpFile.Name(), ledger.DefaultSettings())
	if err != nil {
		t.Fatalf("Failed to create DB: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	bet, err := db.AddBet(ctx, ledger.Bet{
		ChatID:    42,
		Sport:     "basketball_nba",
		Event:     "Celtics @ Lakers",
		Selection: "Lakers",
		Odds:      3.0,
		Stake:     decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("Failed to add bet: %v", err)
	}

	pending, err := db.AllPendingBets(ctx)
	if err != nil || len(pending) != 1 || pending[0].ID != bet.ID {
		t.Fatalf("AllPendingBets = %v, %v", pending, err)
	}

	snap, err := odds.Aggregate(createMockGame())
	if err != nil {
		t.Fatal(err)
	}
	hedges := ledger.FindHedgeOpportunities(pending, snap)
	if len(hedges) != 1 {
		t.Fatalf("expected one hedge, got %d", len(hedges))
	}

	// payout 300; backing Celtics at 2.20 costs 136.36 and returns 300
	expectedProfit := 300 - 100 - 300/2.20
	if math.Abs(hedges[0].GuaranteedProfit-expectedProfit) > 0.01 {
		t.Errorf("Hedge profit mismatch: got $%.2f, expected $%.2f",
			hedges[0].GuaranteedProfit, expectedProfit)
	}
	if hedges[0].Legs[0].Bookmaker != "FanDuel" {
		t.Errorf("hedge should use the best price, got %s", hedges[0].Legs[0].Bookmaker)
	}
}

// TestEdgeCases tests inputs the pipeline must tolerate.
func TestEdgeCases(t *testing.T) {
	t.Run("NoBookmakers", func(t *testing.T) {
		_, err := odds.Aggregate(api.Game{ID: "empty"})
		if !errors.Is(err, odds.ErrNoBookmakers) {
			t.Errorf("expected ErrNoBookmakers, got %v", err)
		}
	})

	t.Run("SingleBook", func(t *testing.T) {
		game := createMockGame()
		game.Bookmakers = game.Bookmakers[:1]
		snap, err := odds.Aggregate(game)
		if err != nil {
			t.Fatal(err)
		}
		_, err = analysis.NewArbitrageScorer(analysis.DefaultArbitrageConfig()).Score(snap)
		if !errors.Is(err, analysis.ErrInsufficientSample) {
			t.Errorf("expected ErrInsufficientSample, got %v", err)
		}
	})

	t.Run("ZeroAndExtremeOdds", func(t *testing.T) {
		game := createMockGame()
		game.Bookmakers = append(game.Bookmakers,
			bookmaker("BadBook", 0, 0),
			bookmaker("WildBook", 1.01, 75),
		)
		snap, err := odds.Aggregate(game)
		if err != nil {
			t.Fatal(err)
		}
		if snap.Malformed != 2 || snap.OutOfRange != 1 {
			t.Errorf("malformed=%d out_of_range=%d, want 2 and 1", snap.Malformed, snap.OutOfRange)
		}
		celtics, _ := snap.Outcome(odds.MarketH2H, "Celtics")
		if celtics.Best > odds.MaxH2HPrice {
			t.Errorf("out of range price leaked into best: %.2f", celtics.Best)
		}
	})

	t.Run("MixedAvailability", func(t *testing.T) {
		game := createMockGame()
		line := -5.5
		game.Bookmakers[1].Markets = append(game.Bookmakers[1].Markets, api.Market{
			Key: api.MarketSpreads,
			Outcomes: []api.Outcome{
				{Name: "Lakers", Price: 1.91, Point: &line},
				{Name: "Celtics", Price: 1.91},
			},
		})
		snap, err := odds.Aggregate(game)
		if err != nil {
			t.Fatal(err)
		}
		if got := snap.BooksQuoting(odds.MarketH2H); got != 4 {
			t.Errorf("h2h books = %d, want 4", got)
		}
		if got := snap.BooksQuoting(odds.MarketSpreads); got != 1 {
			t.Errorf("spread books = %d, want 1", got)
		}
	})
}
