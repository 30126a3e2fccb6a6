package analysis

import (
	"fmt"
	"math"
	"slices"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/mathutil"
	"odds-edge-bot/internal/odds"
)

// SharpConfig holds sharp-versus-soft detection parameters.
type SharpConfig struct {
	MinBookmakers    int
	MinPricesPerSide int
	MaxPrice         float64
	MinTierPrices    int     // prices needed from each tier
	MinScore         float64 // emit only when score > MinScore
	SyndicateSports  []string
	ScheduleSports   []string
	WeatherSports    []string
}

func DefaultSharpConfig() SharpConfig {
	return SharpConfig{
		MinBookmakers:    6,
		MinPricesPerSide: 4,
		MaxPrice:         15,
		MinTierPrices:    2,
		MinScore:         70,
		SyndicateSports:  []string{"baseball_mlb", "basketball_nba"},
		ScheduleSports:   []string{"basketball_nba", "icehockey_nhl"},
		WeatherSports:    []string{"americanfootball_nfl", "baseball_mlb"},
	}
}

// SharpScorer compares what sharp books and recreational books charge for
// the same side and adds pattern points to a composite 0-100 score.
type SharpScorer struct {
	cfg SharpConfig
}

func NewSharpScorer(cfg SharpConfig) *SharpScorer {
	cfg.MaxPrice = orDefault(cfg.MaxPrice, 15)
	if cfg.MinTierPrices <= 0 {
		cfg.MinTierPrices = 1
	}
	return &SharpScorer{cfg: cfg}
}

func (s *SharpScorer) Kind() Kind { return KindSharp }

type tierSplit struct {
	side      Side
	sharpAvg  float64
	softAvg   float64
	ineff     float64
	softBest  float64
	softBook  string
	sharpBest float64
	sharpBook string
}

func (s *SharpScorer) Score(snap odds.MarketSnapshot) (Opportunity, error) {
	sides := h2hSides(snap, s.cfg.MaxPrice)
	if len(sides) < 2 {
		return Opportunity{}, fmt.Errorf("%w: %d h2h outcomes", ErrNoMarket, len(sides))
	}

	books := snap.BooksQuoting(odds.MarketH2H)
	if books < s.cfg.MinBookmakers {
		return Opportunity{}, fmt.Errorf("%w: %d bookmakers, need %d", ErrInsufficientSample, books, s.cfg.MinBookmakers)
	}

	var best *tierSplit
	for _, side := range sides {
		if len(side.Prices) < s.cfg.MinPricesPerSide {
			return Opportunity{}, fmt.Errorf("%w: %d prices for %s", ErrInsufficientSample, len(side.Prices), side.Name)
		}
		split, ok := s.splitTiers(side)
		if ok && (best == nil || split.ineff > best.ineff) {
			best = &split
		}
	}
	if best == nil {
		return Opportunity{}, fmt.Errorf("%w: need %d sharp and %d soft prices", ErrInsufficientSample, s.cfg.MinTierPrices, s.cfg.MinTierPrices)
	}

	efficiency := marketEfficiency(best.ineff)
	score := s.compositeScore(snap, best.side.Prices, efficiency)
	if score <= s.cfg.MinScore {
		return Opportunity{}, fmt.Errorf("%w: score %.0f <= %.0f", ErrBelowThreshold, score, s.cfg.MinScore)
	}

	opp := newOpportunity(KindSharp, snap)
	if best.softAvg > best.sharpAvg {
		opp.Legs = []Leg{{Outcome: best.side.Name, Bookmaker: best.softBook, Price: best.softBest}}
	} else {
		opp.Legs = []Leg{{Outcome: best.side.Name, Bookmaker: best.sharpBook, Price: best.sharpBest}}
	}
	opp.SharpAvg = best.sharpAvg
	opp.SoftAvg = best.softAvg
	opp.Inefficiency = best.ineff
	opp.Variance = mathutil.SampleVariance(best.side.Prices)
	opp.Movement = movement(best.side.Prices)
	opp.Score = score
	opp.Rating = efficiency
	opp.Confidence = sharpConfidence(score)
	opp.Recommendation = sharpRecommendation(score)
	return opp, nil
}

func (s *SharpScorer) splitTiers(side Side) (tierSplit, bool) {
	split := tierSplit{side: side}
	var sharp, soft []float64
	for _, smp := range side.Samples {
		switch api.BookTier(smp.Bookmaker) {
		case api.TierSharp:
			sharp = append(sharp, smp.Price)
			if smp.Price > split.sharpBest {
				split.sharpBest, split.sharpBook = smp.Price, smp.Bookmaker
			}
		case api.TierSoft:
			soft = append(soft, smp.Price)
			if smp.Price > split.softBest {
				split.softBest, split.softBook = smp.Price, smp.Bookmaker
			}
		}
	}
	if len(sharp) < s.cfg.MinTierPrices || len(soft) < s.cfg.MinTierPrices {
		return split, false
	}

	split.sharpAvg = mathutil.Mean(sharp)
	split.softAvg = mathutil.Mean(soft)
	split.ineff = math.Abs(split.sharpAvg-split.softAvg) / math.Min(split.sharpAvg, split.softAvg)
	return split, true
}

// compositeScore adds efficiency, pattern, situational and spread points,
// capped at 100.
func (s *SharpScorer) compositeScore(snap odds.MarketSnapshot, prices []float64, efficiency string) float64 {
	var score float64

	switch efficiency {
	case "LOW":
		score += 30
	case "MEDIUM":
		score += 15
	}

	n := len(prices)
	if n >= 8 && movement(prices) > 0.15 {
		score += 25
	}
	if n >= 10 {
		med := mathutil.Median(prices)
		outliers := 0
		for _, p := range prices {
			if math.Abs(p-med) > med*0.1 {
				outliers++
			}
		}
		if outliers >= 3 {
			score += 20
		}
	}
	if slices.Contains(s.cfg.SyndicateSports, snap.Sport) {
		score += 15
	}

	if slices.Contains(s.cfg.ScheduleSports, snap.Sport) {
		score += 15
	}
	if !snap.CommenceTime.IsZero() {
		if h := snap.CommenceTime.UTC().Hour(); h < 6 || h > 22 {
			score += 10
		}
	}
	if slices.Contains(s.cfg.WeatherSports, snap.Sport) {
		score += 10
	}

	if n >= 8 {
		lo, hi := mathutil.MinMax(prices)
		switch spread := hi - lo; {
		case spread > 0.3:
			score += 20
		case spread < 0.1:
			score += 15
		}
	}

	return math.Min(score, 100)
}

func marketEfficiency(ineff float64) string {
	switch {
	case ineff > 0.08:
		return "LOW"
	case ineff > 0.04:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

func sharpRecommendation(score float64) string {
	switch {
	case score >= 85:
		return "STRONG BET: multiple sharp indicators align"
	case score >= 75:
		return "GOOD BET: professional patterns detected"
	case score >= 70:
		return "MONITOR: emerging opportunity"
	default:
		return "PASS: insufficient edge"
	}
}

func sharpConfidence(score float64) string {
	switch {
	case score >= 90:
		return "VERY HIGH"
	case score >= 80:
		return "HIGH"
	case score >= 70:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
