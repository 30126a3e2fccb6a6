package odds

import (
	"errors"
	"math"
	"time"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/mathutil"
)

// MarketKey identifies a bet market.
type MarketKey string

const (
	MarketH2H     MarketKey = api.MarketH2H
	MarketSpreads MarketKey = api.MarketSpreads
	MarketTotals  MarketKey = api.MarketTotals
)

// AllMarkets is the default aggregation set.
var AllMarkets = []MarketKey{MarketH2H, MarketSpreads, MarketTotals}

// Head-to-head price validity is (MinValidPrice, MaxH2HPrice].
const (
	MinValidPrice = 1.0
	MaxH2HPrice   = 50.0
)

var (
	ErrNoBookmakers         = errors.New("no bookmakers quoted")
	ErrInsufficientOutcomes = errors.New("fewer than two h2h outcomes with valid prices")
)

// PriceSample is one bookmaker's price for one outcome.
type PriceSample struct {
	Bookmaker string
	Price     float64
	Point     *float64
}

// AggregatedOutcome summarizes every bookmaker's price for one outcome.
type AggregatedOutcome struct {
	Name      string
	Samples   []PriceSample
	Mean      float64
	Variance  float64 // population variance
	Best      float64
	Worst     float64
	BestBook  string
	WorstBook string
	Count     int
}

// Prices returns the sampled prices in bookmaker order.
func (o AggregatedOutcome) Prices() []float64 {
	prices := make([]float64, len(o.Samples))
	for i, s := range o.Samples {
		prices[i] = s.Price
	}
	return prices
}

// Within returns the samples whose price lies in (lo, hi].
func (o AggregatedOutcome) Within(lo, hi float64) []PriceSample {
	var out []PriceSample
	for _, s := range o.Samples {
		if s.Price > lo && s.Price <= hi {
			out = append(out, s)
		}
	}
	return out
}

// MarketSnapshot is the aggregated view of one game. Outcomes keep the order
// in which they were first quoted.
type MarketSnapshot struct {
	GameID       string
	Sport        string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	BookCount    int
	Markets      map[MarketKey][]AggregatedOutcome
	Overround    float64 // h2h, from mean prices

	Malformed  int // outcomes with no name or no price
	OutOfRange int // prices rejected by ValidPrice
}

// Outcomes returns the aggregated outcomes for a market.
func (s MarketSnapshot) Outcomes(m MarketKey) []AggregatedOutcome {
	return s.Markets[m]
}

// H2H returns the head-to-head outcomes.
func (s MarketSnapshot) H2H() []AggregatedOutcome {
	return s.Markets[MarketH2H]
}

// Outcome looks up one outcome by name.
func (s MarketSnapshot) Outcome(m MarketKey, name string) (AggregatedOutcome, bool) {
	for _, o := range s.Markets[m] {
		if o.Name == name {
			return o, true
		}
	}
	return AggregatedOutcome{}, false
}

// BooksQuoting counts distinct bookmakers with a valid price in market m.
func (s MarketSnapshot) BooksQuoting(m MarketKey) int {
	seen := make(map[string]struct{})
	for _, o := range s.Markets[m] {
		for _, smp := range o.Samples {
			seen[smp.Bookmaker] = struct{}{}
		}
	}
	return len(seen)
}

// Matchup renders "Away @ Home".
func (s MarketSnapshot) Matchup() string {
	return s.AwayTeam + " @ " + s.HomeTeam
}

// ValidPrice reports whether a decimal price is usable for market m.
// Head-to-head prices must lie in (1.0, 50.0]; other markets are accepted
// as quoted as long as the price is a positive finite number.
func ValidPrice(m MarketKey, price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	if m == MarketH2H {
		return price > MinValidPrice && price <= MaxH2HPrice
	}
	return price > 0
}

type outcomeBucket struct {
	name    string
	samples []PriceSample
}

// Aggregate collapses a game's bookmaker quotes into per-outcome statistics
// for the requested markets (all three when none are given). It is a pure
// function of its input.
func Aggregate(game api.Game, markets ...MarketKey) (MarketSnapshot, error) {
	if len(game.Bookmakers) == 0 {
		return MarketSnapshot{}, ErrNoBookmakers
	}
	if len(markets) == 0 {
		markets = AllMarkets
	}
	wanted := make(map[MarketKey]bool, len(markets))
	for _, m := range markets {
		wanted[m] = true
	}

	snap := MarketSnapshot{
		GameID:       game.ID,
		Sport:        game.SportKey,
		HomeTeam:     game.HomeTeam,
		AwayTeam:     game.AwayTeam,
		CommenceTime: game.CommenceTime,
		Markets:      make(map[MarketKey][]AggregatedOutcome),
	}

	buckets := make(map[MarketKey][]*outcomeBucket)
	index := make(map[MarketKey]map[string]*outcomeBucket)

	for _, bm := range game.Bookmakers {
		book := bm.Title
		if book == "" {
			book = bm.Key
		}
		contributed := false

		for _, mkt := range bm.Markets {
			key := MarketKey(mkt.Key)
			if !wanted[key] {
				continue
			}
			if index[key] == nil {
				index[key] = make(map[string]*outcomeBucket)
			}

			for _, out := range mkt.Outcomes {
				if out.Name == "" || out.Price == 0 {
					snap.Malformed++
					continue
				}
				if !ValidPrice(key, out.Price) {
					snap.OutOfRange++
					continue
				}

				b, ok := index[key][out.Name]
				if !ok {
					b = &outcomeBucket{name: out.Name}
					index[key][out.Name] = b
					buckets[key] = append(buckets[key], b)
				}
				b.samples = append(b.samples, PriceSample{Bookmaker: book, Price: out.Price, Point: out.Point})
				contributed = true
			}
		}

		if contributed {
			snap.BookCount++
		}
	}

	for key, bs := range buckets {
		outcomes := make([]AggregatedOutcome, 0, len(bs))
		for _, b := range bs {
			outcomes = append(outcomes, summarize(b))
		}
		snap.Markets[key] = outcomes
	}

	h2h := snap.Markets[MarketH2H]
	if len(h2h) < 2 {
		return MarketSnapshot{}, ErrInsufficientOutcomes
	}

	means := make([]float64, len(h2h))
	for i, o := range h2h {
		means[i] = o.Mean
	}
	snap.Overround = Overround(means...)

	return snap, nil
}

func summarize(b *outcomeBucket) AggregatedOutcome {
	o := AggregatedOutcome{
		Name:    b.name,
		Samples: b.samples,
		Count:   len(b.samples),
	}
	prices := o.Prices()
	o.Mean = mathutil.Mean(prices)
	o.Variance = mathutil.PopulationVariance(prices)

	o.Best, o.BestBook = b.samples[0].Price, b.samples[0].Bookmaker
	o.Worst, o.WorstBook = o.Best, o.BestBook
	for _, s := range b.samples[1:] {
		if s.Price > o.Best {
			o.Best, o.BestBook = s.Price, s.Bookmaker
		}
		if s.Price < o.Worst {
			o.Worst, o.WorstBook = s.Price, s.Bookmaker
		}
	}
	return o
}
