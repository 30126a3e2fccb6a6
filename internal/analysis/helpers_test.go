package analysis

import (
	"testing"
	"time"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/odds"
)

// quote is one bookmaker's h2h prices, keyed by outcome name.
type quote struct {
	book   string
	prices map[string]float64
}

func q(book string, home, away float64) quote {
	return quote{book: book, prices: map[string]float64{"Home": home, "Away": away}}
}

func snapshotFor(t *testing.T, sport string, commence time.Time, quotes ...quote) odds.MarketSnapshot {
	t.Helper()

	g := api.Game{
		ID:           "game-1",
		SportKey:     sport,
		CommenceTime: commence,
		HomeTeam:     "Home",
		AwayTeam:     "Away",
	}
	for _, qt := range quotes {
		var outcomes []api.Outcome
		for _, name := range []string{"Home", "Away", "Draw"} {
			if p, ok := qt.prices[name]; ok {
				outcomes = append(outcomes, api.Outcome{Name: name, Price: p})
			}
		}
		g.Bookmakers = append(g.Bookmakers, api.Bookmaker{
			Key:     qt.book,
			Title:   qt.book,
			Markets: []api.Market{{Key: api.MarketH2H, Outcomes: outcomes}},
		})
	}

	snap, err := odds.Aggregate(g)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	return snap
}

func snapshot(t *testing.T, quotes ...quote) odds.MarketSnapshot {
	t.Helper()
	return snapshotFor(t, "basketball_nba", time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC), quotes...)
}
