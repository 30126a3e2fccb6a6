package odds

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"odds-edge-bot/internal/api"
)

// h2hGame builds a game where each entry in quotes is one bookmaker's
// (home, away) pair.
func h2hGame(quotes ...[2]float64) api.Game {
	g := api.Game{
		ID:           "g1",
		SportKey:     "basketball_nba",
		CommenceTime: time.Date(2026, 10, 20, 23, 0, 0, 0, time.UTC),
		HomeTeam:     "Home",
		AwayTeam:     "Away",
	}
	for i, q := range quotes {
		g.Bookmakers = append(g.Bookmakers, api.Bookmaker{
			Key:   "book" + string(rune('a'+i)),
			Title: "Book" + string(rune('A'+i)),
			Markets: []api.Market{{
				Key: api.MarketH2H,
				Outcomes: []api.Outcome{
					{Name: "Home", Price: q[0]},
					{Name: "Away", Price: q[1]},
				},
			}},
		})
	}
	return g
}

func TestValidPriceBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		market MarketKey
		price  float64
		want   bool
	}{
		{"h2h exactly 1.0 rejected", MarketH2H, 1.0, false},
		{"h2h just above 1.0 kept", MarketH2H, 1.0000001, true},
		{"h2h 1.05 kept", MarketH2H, 1.05, true},
		{"h2h exactly 50.0 kept", MarketH2H, 50.0, true},
		{"h2h 50.5 rejected", MarketH2H, 50.5, false},
		{"h2h NaN rejected", MarketH2H, math.NaN(), false},
		{"spreads accepted as given", MarketSpreads, 75.0, true},
		{"totals 1.0 accepted as given", MarketTotals, 1.0, true},
		{"totals non-positive rejected", MarketTotals, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPrice(tt.market, tt.price); got != tt.want {
				t.Errorf("ValidPrice(%s, %v) = %v, want %v", tt.market, tt.price, got, tt.want)
			}
		})
	}
}

func TestAggregateBasicStats(t *testing.T) {
	snap, err := Aggregate(h2hGame([2]float64{2.10, 1.95}, [2]float64{2.05, 2.20}))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if snap.BookCount != 2 {
		t.Errorf("BookCount = %d, want 2", snap.BookCount)
	}

	home, ok := snap.Outcome(MarketH2H, "Home")
	if !ok {
		t.Fatal("missing Home outcome")
	}
	if home.Count != 2 || home.Best != 2.10 || home.Worst != 2.05 || home.BestBook != "BookA" {
		t.Errorf("unexpected home aggregate %+v", home)
	}
	if math.Abs(home.Mean-2.075) > 1e-9 {
		t.Errorf("home mean = %f, want 2.075", home.Mean)
	}
	if math.Abs(home.Variance-0.000625) > 1e-9 {
		t.Errorf("home variance = %f, want 0.000625", home.Variance)
	}

	away, _ := snap.Outcome(MarketH2H, "Away")
	wantOverround := 1/home.Mean + 1/away.Mean - 1
	if math.Abs(snap.Overround-wantOverround) > 1e-12 {
		t.Errorf("Overround = %f, want %f", snap.Overround, wantOverround)
	}
}

func TestAggregateVarianceZeroForIdenticalPrices(t *testing.T) {
	snap, err := Aggregate(h2hGame([2]float64{1.91, 1.91}, [2]float64{1.91, 1.91}, [2]float64{1.91, 1.91}))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, o := range snap.H2H() {
		if o.Variance != 0 {
			t.Errorf("%s variance = %g, want 0", o.Name, o.Variance)
		}
	}
}

func TestAggregateDiscardsOutOfRangeH2H(t *testing.T) {
	snap, err := Aggregate(h2hGame([2]float64{1.05, 9.0}, [2]float64{50.5, 8.0}))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	home, _ := snap.Outcome(MarketH2H, "Home")
	if home.Count != 1 || home.Best != 1.05 {
		t.Errorf("expected only 1.05 to survive, got %v", home.Prices())
	}
	if snap.OutOfRange != 1 {
		t.Errorf("OutOfRange = %d, want 1", snap.OutOfRange)
	}
}

func TestAggregateKeepsBoundaryPrices(t *testing.T) {
	snap, err := Aggregate(h2hGame([2]float64{1.0, 50.0}, [2]float64{1.2, 4.0}))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	home, _ := snap.Outcome(MarketH2H, "Home")
	if !reflect.DeepEqual(home.Prices(), []float64{1.2}) {
		t.Errorf("1.0 must be excluded, got %v", home.Prices())
	}
	away, _ := snap.Outcome(MarketH2H, "Away")
	if !reflect.DeepEqual(away.Prices(), []float64{50.0, 4.0}) {
		t.Errorf("50.0 must be kept, got %v", away.Prices())
	}
}

func TestAggregateInsufficientSample(t *testing.T) {
	g := api.Game{
		ID: "g1",
		Bookmakers: []api.Bookmaker{{
			Key: "solo",
			Markets: []api.Market{{
				Key:      api.MarketH2H,
				Outcomes: []api.Outcome{{Name: "Home", Price: 1.5}},
			}},
		}},
	}

	if _, err := Aggregate(g); !errors.Is(err, ErrInsufficientOutcomes) {
		t.Errorf("expected ErrInsufficientOutcomes, got %v", err)
	}
}

func TestAggregateNoBookmakers(t *testing.T) {
	if _, err := Aggregate(api.Game{ID: "empty"}); !errors.Is(err, ErrNoBookmakers) {
		t.Errorf("expected ErrNoBookmakers, got %v", err)
	}
}

func TestAggregateAllPricesInvalid(t *testing.T) {
	if _, err := Aggregate(h2hGame([2]float64{0.9, 60})); !errors.Is(err, ErrInsufficientOutcomes) {
		t.Errorf("expected ErrInsufficientOutcomes, got %v", err)
	}
}

func TestAggregateSkipsMalformedOutcomes(t *testing.T) {
	g := h2hGame([2]float64{1.8, 2.0})
	g.Bookmakers[0].Markets[0].Outcomes = append(g.Bookmakers[0].Markets[0].Outcomes,
		api.Outcome{Name: "", Price: 3.0},
		api.Outcome{Name: "Draw"},
	)

	snap, err := Aggregate(g)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.Malformed != 2 {
		t.Errorf("Malformed = %d, want 2", snap.Malformed)
	}
	if len(snap.H2H()) != 2 {
		t.Errorf("expected 2 h2h outcomes, got %d", len(snap.H2H()))
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	g := h2hGame([2]float64{2.10, 1.95}, [2]float64{2.05, 2.20}, [2]float64{1.98, 2.02})

	first, err1 := Aggregate(g)
	second, err2 := Aggregate(g)
	if err1 != nil || err2 != nil {
		t.Fatalf("Aggregate errors: %v, %v", err1, err2)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("aggregating the same game twice produced different snapshots")
	}
}

func TestAggregatePreservesQuoteOrder(t *testing.T) {
	snap, err := Aggregate(h2hGame([2]float64{2.0, 1.9}))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	h2h := snap.H2H()
	if h2h[0].Name != "Home" || h2h[1].Name != "Away" {
		t.Errorf("outcome order = %s, %s; want Home, Away", h2h[0].Name, h2h[1].Name)
	}
}

func TestAggregateSpreadsAndTotals(t *testing.T) {
	point := -4.5
	total := 221.5
	g := h2hGame([2]float64{1.7, 2.2})
	g.Bookmakers[0].Markets = append(g.Bookmakers[0].Markets,
		api.Market{Key: api.MarketSpreads, Outcomes: []api.Outcome{
			{Name: "Home", Price: 1.91, Point: &point},
		}},
		api.Market{Key: api.MarketTotals, Outcomes: []api.Outcome{
			{Name: "Over", Price: 1.87, Point: &total},
			{Name: "Under", Price: 1.95, Point: &total},
		}},
	)

	snap, err := Aggregate(g)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(snap.Outcomes(MarketTotals)) != 2 {
		t.Errorf("expected 2 totals outcomes, got %d", len(snap.Outcomes(MarketTotals)))
	}
	spread, ok := snap.Outcome(MarketSpreads, "Home")
	if !ok || *spread.Samples[0].Point != -4.5 {
		t.Errorf("spread point not carried through: %+v", spread)
	}

	onlyH2H, err := Aggregate(g, MarketH2H)
	if err != nil {
		t.Fatalf("Aggregate h2h only: %v", err)
	}
	if len(onlyH2H.Outcomes(MarketTotals)) != 0 {
		t.Error("unrequested markets should be ignored")
	}
}
