package analysis

import (
	"fmt"

	"odds-edge-bot/internal/mathutil"
	"odds-edge-bot/internal/odds"
)

// SteamConfig holds line-movement detection parameters.
type SteamConfig struct {
	MinBookmakers     int
	MinPricesPerSide  int
	MaxPrice          float64
	VarianceThreshold float64 // sample variance that counts as a move
	FollowMovement    float64 // relative spread above which the move is worth following
}

func DefaultSteamConfig() SteamConfig {
	return SteamConfig{
		MinBookmakers:     4,
		MinPricesPerSide:  3,
		MaxPrice:          20,
		VarianceThreshold: 0.15,
		FollowMovement:    0.10,
	}
}

// SteamScorer flags games where books disagree sharply on one side, the
// footprint a fast one-sided move leaves when some books have adjusted and
// others have not.
type SteamScorer struct {
	cfg SteamConfig
}

func NewSteamScorer(cfg SteamConfig) *SteamScorer {
	cfg.MaxPrice = orDefault(cfg.MaxPrice, 20)
	return &SteamScorer{cfg: cfg}
}

func (s *SteamScorer) Kind() Kind { return KindSteam }

func (s *SteamScorer) Score(snap odds.MarketSnapshot) (Opportunity, error) {
	sides := h2hSides(snap, s.cfg.MaxPrice)
	if len(sides) < 2 {
		return Opportunity{}, fmt.Errorf("%w: %d h2h outcomes", ErrNoMarket, len(sides))
	}

	books := snap.BooksQuoting(odds.MarketH2H)
	if books < s.cfg.MinBookmakers {
		return Opportunity{}, fmt.Errorf("%w: %d bookmakers, need %d", ErrInsufficientSample, books, s.cfg.MinBookmakers)
	}

	bestIdx := -1
	var maxVar float64
	for i, side := range sides {
		if len(side.Prices) < s.cfg.MinPricesPerSide {
			return Opportunity{}, fmt.Errorf("%w: %d prices for %s", ErrInsufficientSample, len(side.Prices), side.Name)
		}
		if v := mathutil.SampleVariance(side.Prices); bestIdx < 0 || v > maxVar {
			bestIdx, maxVar = i, v
		}
	}

	if maxVar <= s.cfg.VarianceThreshold {
		return Opportunity{}, fmt.Errorf("%w: variance %.4f <= %.4f", ErrBelowThreshold, maxVar, s.cfg.VarianceThreshold)
	}

	side := sides[bestIdx]
	move := movement(side.Prices)

	opp := newOpportunity(KindSteam, snap)
	opp.Legs = []Leg{{Outcome: side.Name, Bookmaker: side.BestBook, Price: side.Best}}
	opp.Variance = maxVar
	opp.Movement = move
	opp.Score = mathutil.Clamp(move*20, 0, 10)
	opp.Rating = steamInterpretation(move)
	opp.Confidence = dispersionConfidence(maxVar, move)

	if move > s.cfg.FollowMovement {
		opp.Recommendation = fmt.Sprintf("FOLLOW %s @ %.2f (%s) before the rest of the market moves", side.Name, side.Best, side.BestBook)
	} else {
		opp.Recommendation = "MONITOR: spread too narrow to act on"
	}
	return opp, nil
}

func steamInterpretation(move float64) string {
	switch {
	case move > 0.25:
		return "STRONG STEAM"
	case move > 0.15:
		return "MODERATE STEAM"
	case move > 0.10:
		return "MILD MOVEMENT"
	default:
		return "MARKET NOISE"
	}
}
