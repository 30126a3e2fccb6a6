package analysis

import (
	"fmt"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/odds"
)

// ArbitrageConfig holds arbitrage detection parameters.
type ArbitrageConfig struct {
	MinProfit     float64 // minimum margin, 0.005 = 0.5%
	MinBookmakers int
	MaxPrice      float64
	TotalStake    float64
	PremiumProfit float64 // margin at which legs should be placed immediately
}

// DefaultArbitrageConfig returns the scheduled-scan thresholds.
func DefaultArbitrageConfig() ArbitrageConfig {
	return ArbitrageConfig{
		MinProfit:     0.005,
		MinBookmakers: 2,
		MaxPrice:      odds.MaxH2HPrice,
		TotalStake:    100,
		PremiumProfit: 0.05,
	}
}

// LiveArbitrageConfig returns the stricter thresholds used for live scanning.
func LiveArbitrageConfig() ArbitrageConfig {
	return ArbitrageConfig{
		MinProfit:     0.02,
		MinBookmakers: 4,
		MaxPrice:      odds.MaxH2HPrice,
		TotalStake:    100,
		PremiumProfit: 0.05,
	}
}

// ArbitrageScorer finds h2h markets whose best prices across bookmakers
// imply less than 100% in total.
type ArbitrageScorer struct {
	cfg ArbitrageConfig
}

func NewArbitrageScorer(cfg ArbitrageConfig) *ArbitrageScorer {
	cfg.MaxPrice = orDefault(cfg.MaxPrice, odds.MaxH2HPrice)
	cfg.TotalStake = orDefault(cfg.TotalStake, 100)
	return &ArbitrageScorer{cfg: cfg}
}

func (s *ArbitrageScorer) Kind() Kind { return KindArbitrage }

// ArbitrageResult is the stake split for one set of best prices.
type ArbitrageResult struct {
	ImpliedSum float64
	Margin     float64
	Stakes     []float64
	Payout     float64 // identical for every leg
}

// CalculateArbitrage splits totalStake across mutually exclusive outcomes so
// every leg pays the same. ok is false when the prices do not form an
// arbitrage (Σ 1/price >= 1) or any price cannot pay out.
func CalculateArbitrage(prices []float64, totalStake float64) (ArbitrageResult, bool) {
	if len(prices) < 2 {
		return ArbitrageResult{}, false
	}

	var implied float64
	for _, p := range prices {
		if p <= 1.0 {
			return ArbitrageResult{}, false
		}
		implied += 1 / p
	}

	res := ArbitrageResult{ImpliedSum: implied}
	if implied >= 1.0 {
		return res, false
	}

	res.Margin = 1/implied - 1
	res.Payout = totalStake / implied
	res.Stakes = make([]float64, len(prices))
	for i, p := range prices {
		res.Stakes[i] = totalStake / (p * implied)
	}
	return res, true
}

func (s *ArbitrageScorer) Score(snap odds.MarketSnapshot) (Opportunity, error) {
	sides := h2hSides(snap, s.cfg.MaxPrice)
	if len(sides) < 2 {
		return Opportunity{}, fmt.Errorf("%w: %d h2h outcomes", ErrNoMarket, len(sides))
	}

	books := snap.BooksQuoting(odds.MarketH2H)
	if books < s.cfg.MinBookmakers {
		return Opportunity{}, fmt.Errorf("%w: %d bookmakers, need %d", ErrInsufficientSample, books, s.cfg.MinBookmakers)
	}

	best := make([]float64, len(sides))
	for i, side := range sides {
		if len(side.Samples) == 0 {
			return Opportunity{}, fmt.Errorf("%w: no usable price for %s", ErrInsufficientSample, side.Name)
		}
		best[i] = side.Best
	}

	res, ok := CalculateArbitrage(best, s.cfg.TotalStake)
	if !ok {
		return Opportunity{}, fmt.Errorf("%w: implied %.4f", ErrBelowThreshold, res.ImpliedSum)
	}
	if res.Margin < s.cfg.MinProfit {
		return Opportunity{}, fmt.Errorf("%w: margin %.4f < %.4f", ErrBelowThreshold, res.Margin, s.cfg.MinProfit)
	}

	opp := newOpportunity(KindArbitrage, snap)
	opp.ProfitMargin = res.Margin
	opp.ImpliedSum = res.ImpliedSum
	opp.TotalStake = s.cfg.TotalStake
	opp.Score = res.Margin * 100

	var ratingSum float64
	for i, side := range sides {
		opp.Legs = append(opp.Legs, Leg{
			Outcome:   side.Name,
			Bookmaker: side.BestBook,
			Price:     side.Best,
			Stake:     res.Stakes[i],
			Payout:    res.Stakes[i] * side.Best,
		})
		ratingSum += api.BookRating(side.BestBook)
	}

	opp.Risk = arbitrageRisk(ratingSum / float64(len(sides)))
	opp.Rating = arbitrageGrade(res.Margin, opp.Risk)
	opp.Confidence = opp.Risk
	if res.Margin >= s.cfg.PremiumProfit {
		opp.Recommendation = "IMMEDIATE: place every leg now"
	} else {
		opp.Recommendation = "FAST: place every leg within minutes"
	}
	return opp, nil
}

func arbitrageRisk(avgRating float64) string {
	switch {
	case avgRating >= 9:
		return "VERY_LOW"
	case avgRating >= 8:
		return "LOW"
	case avgRating >= 6:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}

func arbitrageGrade(margin float64, risk string) string {
	switch {
	case margin >= 0.10 && (risk == "VERY_LOW" || risk == "LOW"):
		return "PREMIUM"
	case margin >= 0.07:
		return "EXCELLENT"
	case margin >= 0.05:
		return "VERY_GOOD"
	case margin >= 0.03:
		return "GOOD"
	default:
		return "FAIR"
	}
}
