package ledger

import (
	"fmt"
	"math"
	"strings"

	"odds-edge-bot/internal/odds"
)

// HedgeLeg is one counter bet needed to lock in a result.
type HedgeLeg struct {
	Outcome   string
	Bookmaker string
	Price     float64
	Stake     float64
}

// HedgeOpportunity is a pending bet that can be hedged for a guaranteed profit
// at the current best prices.
type HedgeOpportunity struct {
	Bet              Bet
	Legs             []HedgeLeg
	HedgeStake       float64 // total of the legs
	GuaranteedProfit float64
	Description      string
}

// FindHedgeOpportunities checks pending head-to-head bets on the snapshot's
// game against the best price of every other outcome.
func FindHedgeOpportunities(bets []Bet, snap odds.MarketSnapshot) []HedgeOpportunity {
	var opportunities []HedgeOpportunity

	event := snap.Matchup()
	for _, bet := range bets {
		if bet.Status != StatusPending || bet.Event != event {
			continue
		}
		if bet.BetType != "" && bet.BetType != string(odds.MarketH2H) {
			continue
		}

		if opp, ok := checkHedge(bet, snap.H2H()); ok {
			opportunities = append(opportunities, opp)
		}
	}

	return opportunities
}

func checkHedge(bet Bet, outcomes []odds.AggregatedOutcome) (HedgeOpportunity, bool) {
	if len(outcomes) < 2 {
		return HedgeOpportunity{}, false
	}

	stake, _ := bet.Stake.Float64()
	payout := stake * bet.Odds

	var legs []HedgeLeg
	matched := false
	total := 0.0
	for _, o := range outcomes {
		if strings.EqualFold(o.Name, bet.Selection) {
			matched = true
			continue
		}
		if o.Best <= 1 {
			return HedgeOpportunity{}, false
		}
		// Each leg returns the bet's payout if its outcome wins.
		h := payout / o.Best
		total += h
		legs = append(legs, HedgeLeg{
			Outcome:   o.Name,
			Bookmaker: o.BestBook,
			Price:     o.Best,
			Stake:     roundCents(h),
		})
	}
	if !matched || len(legs) == 0 {
		return HedgeOpportunity{}, false
	}

	profit := payout - stake - total
	if profit <= 0 {
		return HedgeOpportunity{}, false
	}

	return HedgeOpportunity{
		Bet:              bet,
		Legs:             legs,
		HedgeStake:       roundCents(total),
		GuaranteedProfit: roundCents(profit),
		Description: fmt.Sprintf(
			"Hedge %s @ %.2f with $%.2f across %d outcome(s). Guaranteed profit: $%.2f",
			bet.Selection, bet.Odds, total, len(legs), profit,
		),
	}, true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
