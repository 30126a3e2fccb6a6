package analysis

import (
	"fmt"
	"math"

	"odds-edge-bot/internal/mathutil"
	"odds-edge-bot/internal/odds"
)

// ProbabilityEstimator assigns a win probability to each side, in order.
// A nil result means no estimate could be made.
type ProbabilityEstimator interface {
	Estimate(snap odds.MarketSnapshot, sides []Side) []float64
}

// FixedEstimator returns constant home/away probabilities regardless of the
// market; any other outcome (a draw) gets 0. It is a placeholder model.
type FixedEstimator struct {
	Home float64
	Away float64
}

func (f FixedEstimator) Estimate(snap odds.MarketSnapshot, sides []Side) []float64 {
	probs := make([]float64, len(sides))
	for i, s := range sides {
		switch s.Name {
		case snap.HomeTeam:
			probs[i] = f.Home
		case snap.AwayTeam:
			probs[i] = f.Away
		}
	}
	return probs
}

// ConsensusEstimator derives fair probabilities from the market: the mean
// implied probability per side with the overround removed. With
// MedianWeight > 0 it blends in a median-weighted estimate that discounts
// outlying books.
type ConsensusEstimator struct {
	MedianWeight float64
}

func (c ConsensusEstimator) Estimate(_ odds.MarketSnapshot, sides []Side) []float64 {
	avg := make([]float64, len(sides))
	for i, s := range sides {
		if len(s.Prices) == 0 {
			return nil
		}
		var sum float64
		for _, p := range s.Prices {
			sum += 1 / p
		}
		avg[i] = sum / float64(len(s.Prices))
	}

	fair := odds.RemoveVig(avg...)
	if fair == nil || c.MedianWeight <= 0 {
		return fair
	}

	blended := make([]float64, len(sides))
	for i, s := range sides {
		blended[i] = (1-c.MedianWeight)*fair[i] + c.MedianWeight*medianWeightedImplied(s.Prices)
	}
	return odds.RemoveVig(blended...)
}

// medianWeightedImplied averages implied probabilities, weighting each price
// by 1/(1+d) where d is its relative distance from the median price.
func medianWeightedImplied(prices []float64) float64 {
	med := mathutil.Median(prices)
	var num, den float64
	for _, p := range prices {
		w := 1 / (1 + math.Abs(p-med)/med)
		num += w / p
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// EdgeConfig holds parameters for an edge-style detector.
type EdgeConfig struct {
	Kind             Kind
	Estimator        ProbabilityEstimator
	MinBookmakers    int
	MinPricesPerSide int
	MaxPrice         float64
	MinEdge          float64 // emit only when edge > MinEdge
	MinKelly         float64 // emit only when kelly > MinKelly
	KellyCap         float64
	HighEdge         float64 // when set, confidence is HIGH above it and MEDIUM below
}

// KellyConfig sizes bets against the fixed 55/45 home/away placeholder.
func KellyConfig() EdgeConfig {
	return EdgeConfig{
		Kind:             KindKelly,
		Estimator:        FixedEstimator{Home: 0.55, Away: 0.45},
		MinBookmakers:    2,
		MinPricesPerSide: 1,
		MaxPrice:         odds.MaxH2HPrice,
		MinKelly:         0.02,
		KellyCap:         DefaultKellyCap,
	}
}

// EdgesConfig looks for prices beating a blended market consensus in deep markets.
func EdgesConfig() EdgeConfig {
	return EdgeConfig{
		Kind:             KindEdge,
		Estimator:        ConsensusEstimator{MedianWeight: 0.4},
		MinBookmakers:    8,
		MinPricesPerSide: 5,
		MaxPrice:         20,
		MinEdge:          0.05,
		KellyCap:         DefaultKellyCap,
	}
}

// ValueConfig compares the best price against the plain vig-free consensus.
func ValueConfig() EdgeConfig {
	return EdgeConfig{
		Kind:             KindValue,
		Estimator:        ConsensusEstimator{},
		MinBookmakers:    5,
		MinPricesPerSide: 1,
		MaxPrice:         odds.MaxH2HPrice,
		MinEdge:          0.05,
		KellyCap:         DefaultKellyCap,
		HighEdge:         0.10,
	}
}

// EdgeScorer finds the side whose best price most exceeds its estimated
// true probability.
type EdgeScorer struct {
	cfg EdgeConfig
}

func NewEdgeScorer(cfg EdgeConfig) *EdgeScorer {
	if cfg.Kind == "" {
		cfg.Kind = KindEdge
	}
	if cfg.Estimator == nil {
		cfg.Estimator = ConsensusEstimator{}
	}
	cfg.MaxPrice = orDefault(cfg.MaxPrice, odds.MaxH2HPrice)
	cfg.KellyCap = orDefault(cfg.KellyCap, DefaultKellyCap)
	return &EdgeScorer{cfg: cfg}
}

func (s *EdgeScorer) Kind() Kind { return s.cfg.Kind }

func (s *EdgeScorer) Score(snap odds.MarketSnapshot) (Opportunity, error) {
	sides := h2hSides(snap, s.cfg.MaxPrice)
	if len(sides) < 2 {
		return Opportunity{}, fmt.Errorf("%w: %d h2h outcomes", ErrNoMarket, len(sides))
	}

	books := snap.BooksQuoting(odds.MarketH2H)
	if books < s.cfg.MinBookmakers {
		return Opportunity{}, fmt.Errorf("%w: %d bookmakers, need %d", ErrInsufficientSample, books, s.cfg.MinBookmakers)
	}
	for _, side := range sides {
		if len(side.Prices) < max(s.cfg.MinPricesPerSide, 1) {
			return Opportunity{}, fmt.Errorf("%w: %d prices for %s", ErrInsufficientSample, len(side.Prices), side.Name)
		}
	}

	probs := s.cfg.Estimator.Estimate(snap, sides)
	if len(probs) != len(sides) {
		return Opportunity{}, fmt.Errorf("%w: no probability estimate", ErrInsufficientSample)
	}

	bestIdx := -1
	var bestEdge, bestKelly float64
	for i, side := range sides {
		edge := Edge(probs[i], side.Best)
		kelly := KellyFraction(probs[i], side.Best, s.cfg.KellyCap)

		better := bestIdx < 0 || edge > bestEdge
		if s.cfg.Kind == KindKelly {
			better = bestIdx < 0 || kelly > bestKelly
		}
		if better {
			bestIdx, bestEdge, bestKelly = i, edge, kelly
		}
	}

	if bestEdge <= s.cfg.MinEdge {
		return Opportunity{}, fmt.Errorf("%w: edge %.4f <= %.4f", ErrBelowThreshold, bestEdge, s.cfg.MinEdge)
	}
	if bestKelly <= s.cfg.MinKelly {
		return Opportunity{}, fmt.Errorf("%w: kelly %.4f <= %.4f", ErrBelowThreshold, bestKelly, s.cfg.MinKelly)
	}

	side := sides[bestIdx]
	opp := newOpportunity(s.cfg.Kind, snap)
	opp.Legs = []Leg{{Outcome: side.Name, Bookmaker: side.BestBook, Price: side.Best}}
	opp.TrueProb = probs[bestIdx]
	opp.ImpliedProb = 1 / side.Best
	opp.Edge = bestEdge
	opp.KellyStake = bestKelly
	opp.Variance = mathutil.SampleVariance(side.Prices)
	opp.Movement = movement(side.Prices)
	opp.Rating = valueRating(bestEdge, books)

	if s.cfg.HighEdge > 0 {
		opp.Confidence = "MEDIUM"
		if bestEdge > s.cfg.HighEdge {
			opp.Confidence = "HIGH"
		}
	} else {
		opp.Confidence = dispersionConfidence(opp.Variance, opp.Movement)
	}

	if s.cfg.Kind == KindKelly {
		opp.Score = bestKelly * 100
	} else {
		opp.Score = mathutil.Clamp(bestEdge*100, 0, 100)
	}
	opp.Recommendation = fmt.Sprintf("BET %s @ %.2f (%s), stake %.1f%% of bankroll",
		side.Name, side.Best, side.BestBook, bestKelly*100)
	return opp, nil
}

// dispersionConfidence rates how much the books agree on a side.
func dispersionConfidence(variance, spread float64) string {
	switch {
	case variance < 0.1 && spread < 0.15:
		return "VERY HIGH"
	case variance < 0.2 && spread < 0.25:
		return "HIGH"
	case variance < 0.4 && spread < 0.35:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func valueRating(edge float64, books int) string {
	score := edge*100 + float64(books-5)*2
	switch {
	case score > 25:
		return "EXCEPTIONAL"
	case score > 15:
		return "EXCELLENT"
	case score > 10:
		return "VERY GOOD"
	case score > 5:
		return "GOOD"
	default:
		return "FAIR"
	}
}
