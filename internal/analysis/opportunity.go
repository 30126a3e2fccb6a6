package analysis

import (
	"errors"
	"time"

	"odds-edge-bot/internal/mathutil"
	"odds-edge-bot/internal/odds"
)

// Reasons a scorer emits nothing. Scorers wrap these with detail.
var (
	ErrNoMarket           = errors.New("market not quoted")
	ErrInsufficientSample = errors.New("insufficient sample")
	ErrBelowThreshold     = errors.New("below threshold")
)

// Kind names the scorer family that produced an opportunity.
type Kind string

const (
	KindArbitrage Kind = "arbitrage"
	KindKelly     Kind = "kelly"
	KindEdge      Kind = "edge"
	KindValue     Kind = "value"
	KindSteam     Kind = "steam"
	KindSharp     Kind = "sharp"
)

// Leg is one outcome involved in an opportunity.
type Leg struct {
	Outcome   string
	Bookmaker string
	Price     float64
	Stake     float64 // arbitrage only
	Payout    float64 // arbitrage only
}

// Opportunity is a scored finding for one game. Metric fields that do not
// apply to Kind are left zero.
type Opportunity struct {
	Kind         Kind
	Sport        string
	GameID       string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	Market       odds.MarketKey
	Legs         []Leg
	Score        float64
	BookCount    int

	ProfitMargin float64 // arbitrage: 1/implied - 1
	TotalStake   float64
	ImpliedSum   float64
	TrueProb     float64
	ImpliedProb  float64
	Edge         float64 // (true - implied) / implied
	KellyStake   float64 // fraction of bankroll, already capped
	Variance     float64
	Movement     float64 // (max - min) / min
	SharpAvg     float64
	SoftAvg      float64
	Inefficiency float64

	Confidence     string
	Rating         string
	Risk           string
	Recommendation string
}

// Matchup renders "Away @ Home".
func (o Opportunity) Matchup() string {
	return o.AwayTeam + " @ " + o.HomeTeam
}

// Scorer turns one aggregated game into at most one opportunity. A nil
// error means an opportunity was found; otherwise the error wraps one of
// the Err* reasons above. Scorers only read the snapshot.
type Scorer interface {
	Kind() Kind
	Score(snap odds.MarketSnapshot) (Opportunity, error)
}

func newOpportunity(kind Kind, snap odds.MarketSnapshot) Opportunity {
	return Opportunity{
		Kind:         kind,
		Sport:        snap.Sport,
		GameID:       snap.GameID,
		HomeTeam:     snap.HomeTeam,
		AwayTeam:     snap.AwayTeam,
		CommenceTime: snap.CommenceTime,
		Market:       odds.MarketH2H,
		BookCount:    snap.BooksQuoting(odds.MarketH2H),
	}
}

// Side is one h2h outcome restricted to the prices a scorer accepts.
type Side struct {
	Name     string
	Samples  []odds.PriceSample
	Prices   []float64
	Best     float64
	BestBook string
}

// h2hSides returns every h2h outcome with its samples limited to
// (1.0, maxPrice]. Sides may come back empty.
func h2hSides(snap odds.MarketSnapshot, maxPrice float64) []Side {
	outcomes := snap.H2H()
	sides := make([]Side, 0, len(outcomes))
	for _, o := range outcomes {
		s := Side{Name: o.Name, Samples: o.Within(odds.MinValidPrice, maxPrice)}
		for _, smp := range s.Samples {
			s.Prices = append(s.Prices, smp.Price)
			if smp.Price > s.Best {
				s.Best, s.BestBook = smp.Price, smp.Bookmaker
			}
		}
		sides = append(sides, s)
	}
	return sides
}

// movement is the relative max-min spread of a price list.
func movement(prices []float64) float64 {
	lo, hi := mathutil.MinMax(prices)
	if lo <= 0 {
		return 0
	}
	return (hi - lo) / lo
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// Absences tallies why scorers emitted nothing, one counter per reason.
type Absences struct {
	NoMarket           int
	InsufficientSample int
	BelowThreshold     int
	Other              int
}

// Add counts err under its reason.
func (a *Absences) Add(err error) {
	switch {
	case errors.Is(err, ErrNoMarket):
		a.NoMarket++
	case errors.Is(err, ErrInsufficientSample):
		a.InsufficientSample++
	case errors.Is(err, ErrBelowThreshold):
		a.BelowThreshold++
	default:
		a.Other++
	}
}

// Total is the number of games that produced nothing.
func (a Absences) Total() int {
	return a.NoMarket + a.InsufficientSample + a.BelowThreshold + a.Other
}
