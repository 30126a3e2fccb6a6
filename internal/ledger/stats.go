package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SportStats is the performance of one sport's bets.
type SportStats struct {
	Sport      string
	Bets       int
	Won        int
	Lost       int
	ProfitLoss decimal.Decimal
}

// Stats summarizes a list of bets. WinRate and ROI are fractions over
// decided (won or lost) and settled bets respectively.
type Stats struct {
	Total      int
	Pending    int
	Won        int
	Lost       int
	Void       int
	Staked     decimal.Decimal // settled bets only
	Returned   decimal.Decimal
	ProfitLoss decimal.Decimal
	WinRate    float64
	ROI        float64
	AvgOdds    float64
	Best       decimal.Decimal
	Worst      decimal.Decimal
	BySport    []SportStats
}

// Summarize computes performance over bets.
func Summarize(bets []Bet) Stats {
	st := Stats{
		Total:      len(bets),
		Staked:     decimal.Zero,
		Returned:   decimal.Zero,
		ProfitLoss: decimal.Zero,
		Best:       decimal.Zero,
		Worst:      decimal.Zero,
	}

	sports := map[string]*SportStats{}
	var oddsSum float64
	first := true
	for _, b := range bets {
		oddsSum += b.Odds

		sp, ok := sports[b.Sport]
		if !ok {
			sp = &SportStats{Sport: b.Sport, ProfitLoss: decimal.Zero}
			sports[b.Sport] = sp
		}
		sp.Bets++

		switch b.Status {
		case StatusPending:
			st.Pending++
			continue
		case StatusWon:
			st.Won++
			sp.Won++
		case StatusLost:
			st.Lost++
			sp.Lost++
		case StatusVoid:
			st.Void++
		}

		st.Staked = st.Staked.Add(b.Stake)
		st.Returned = st.Returned.Add(b.Payout)
		st.ProfitLoss = st.ProfitLoss.Add(b.ProfitLoss)
		sp.ProfitLoss = sp.ProfitLoss.Add(b.ProfitLoss)

		if first || b.ProfitLoss.GreaterThan(st.Best) {
			st.Best = b.ProfitLoss
		}
		if first || b.ProfitLoss.LessThan(st.Worst) {
			st.Worst = b.ProfitLoss
		}
		first = false
	}

	if decided := st.Won + st.Lost; decided > 0 {
		st.WinRate = float64(st.Won) / float64(decided)
	}
	if st.Staked.IsPositive() {
		st.ROI = st.ProfitLoss.Div(st.Staked).InexactFloat64()
	}
	if len(bets) > 0 {
		st.AvgOdds = oddsSum / float64(len(bets))
	}

	for _, sp := range sports {
		st.BySport = append(st.BySport, *sp)
	}
	sort.Slice(st.BySport, func(i, j int) bool {
		return st.BySport[i].Sport < st.BySport[j].Sport
	})
	return st
}

// Performance summarizes the chat's bets placed since the given time.
func (d *DB) Performance(ctx context.Context, chatID int64, since time.Time) (Stats, error) {
	bets, err := d.BetsSince(ctx, chatID, since)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(bets), nil
}

// Pattern warning thresholds.
const (
	lossStreakWarning = 3
	minDecidedBets    = 10
	lowWinRate        = 0.30
	heavyLossROI      = -0.20
	maxBetsPerDay     = 10
)

// Warnings inspects a chat's betting history for harmful patterns: a losing
// streak, a low win rate, heavy losses or a burst of bets in the last 24h.
func Warnings(bets []Bet, now time.Time) []string {
	var warnings []string

	var decided []Bet
	for _, b := range bets {
		if (b.Status == StatusWon || b.Status == StatusLost) && b.SettledAt != nil {
			decided = append(decided, b)
		}
	}
	sort.SliceStable(decided, func(i, j int) bool {
		return decided[i].SettledAt.Before(*decided[j].SettledAt)
	})

	streak := 0
	for i := len(decided) - 1; i >= 0 && decided[i].Status == StatusLost; i-- {
		streak++
	}
	if streak >= lossStreakWarning {
		warnings = append(warnings, fmt.Sprintf("You're on a %d-bet losing streak. Consider taking a break.", streak))
	}

	if len(decided) >= minDecidedBets {
		st := Summarize(decided)
		if st.WinRate < lowWinRate {
			warnings = append(warnings, fmt.Sprintf("Your win rate is %.1f%%. Review your strategy.", st.WinRate*100))
		}
		if st.ROI < heavyLossROI {
			warnings = append(warnings, fmt.Sprintf("You're down %.1f%% overall. Consider reducing bet sizes.", -st.ROI*100))
		}
	}

	recent := 0
	cutoff := now.Add(-24 * time.Hour)
	for _, b := range bets {
		if b.PlacedAt.After(cutoff) {
			recent++
		}
	}
	if recent >= maxBetsPerDay {
		warnings = append(warnings, fmt.Sprintf("You've placed %d bets in 24 hours. Consider pacing yourself.", recent))
	}

	return warnings
}

// Patterns returns warnings over the chat's full history.
func (d *DB) Patterns(ctx context.Context, chatID int64) ([]string, error) {
	bets, err := d.BetsSince(ctx, chatID, time.Time{})
	if err != nil {
		return nil, err
	}
	return Warnings(bets, d.now()), nil
}
