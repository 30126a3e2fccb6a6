package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"odds-edge-bot/internal/ledger"
)

// Bankroll renders a chat's balance with its trigger levels.
func Bankroll(b ledger.Bankroll, s ledger.Settings) string {
	stopLoss, takeProfit := s.Levels(b.Starting)
	maxBet := b.Balance.Mul(decimal.NewFromFloat(s.MaxBetPct)).Round(2)

	var sb strings.Builder
	sb.WriteString("*🏦 Bankroll*\n")
	fmt.Fprintf(&sb, "Balance: $%s (started at $%s)\n", b.Balance.StringFixed(2), b.Starting.StringFixed(2))
	fmt.Fprintf(&sb, "Max bet: $%s (%.0f%%) | Kelly fraction %.2f\n", maxBet.StringFixed(2), s.MaxBetPct*100, s.KellyFraction)
	fmt.Fprintf(&sb, "Stop-loss $%s | take-profit $%s\n", stopLoss.StringFixed(2), takeProfit.StringFixed(2))
	fmt.Fprintf(&sb, "Status: %s\n", Escape(string(s.Status(b.Balance, b.Starting))))
	return sb.String()
}

// BetSize renders a sizing recommendation.
func BetSize(rec ledger.BetRecommendation, prob, odds float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📏 Bet size* for %.1f%% at %.2f\n", prob*100, odds)
	if rec.Amount.IsZero() {
		fmt.Fprintf(&b, "Don't bet: %s\n", Escape(rec.Reason))
		return b.String()
	}
	fmt.Fprintf(&b, "Stake: *$%s*\n", rec.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Full Kelly %.1f%% → adjusted %.2f%%\n", rec.KellyPct*100, rec.AdjustedPct*100)
	fmt.Fprintf(&b, "Expected value $%s | risk %s\n", rec.ExpectedValue.StringFixed(2), Escape(rec.Risk))
	return b.String()
}

// Adjustment renders a bankroll change.
func Adjustment(adj ledger.Adjustment) string {
	line := fmt.Sprintf("Bankroll $%s → $%s (%s)", adj.Old.StringFixed(2), adj.New.StringFixed(2), signed(adj.Change.StringFixed(2)))
	switch adj.Status {
	case ledger.StatusStopLoss:
		line += "\n🛑 Stop-loss reached. Consider pausing."
	case ledger.StatusTakeProfit:
		line += "\n🎉 Take-profit reached. Consider banking gains."
	}
	return line + "\n"
}

// Bet renders one tracked bet.
func Bet(bet ledger.Bet) string {
	line := fmt.Sprintf("`%s` %s @ %.2f, $%s", bet.ShortID(), name(bet.Selection), bet.Odds, bet.Stake.StringFixed(2))
	if bet.Event != "" {
		line += " | " + Escape(bet.Event)
	}
	if bet.Status != ledger.StatusPending {
		line += fmt.Sprintf(" | %s %s", strings.ToUpper(string(bet.Status)), signed(bet.ProfitLoss.StringFixed(2)))
	}
	return line + "\n"
}

// Pending lists unsettled bets.
func Pending(bets []ledger.Bet) string {
	if len(bets) == 0 {
		return "No pending bets.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*⏳ Pending bets* (%d)\n", len(bets))
	for _, bet := range bets {
		b.WriteString("• " + Bet(bet))
	}
	b.WriteString("Settle with /settle <id> <won|lost|void>\n")
	return b.String()
}

// Stats renders performance over the last days.
func Stats(st ledger.Stats, days int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📈 Performance* (last %d days)\n", days)
	if st.Total == 0 {
		b.WriteString("No bets tracked yet. Use /trackbet to add one.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Bets: %d (%d won, %d lost, %d void, %d pending)\n", st.Total, st.Won, st.Lost, st.Void, st.Pending)
	fmt.Fprintf(&b, "Win rate: %.1f%% | ROI: %+.1f%%\n", st.WinRate*100, st.ROI*100)
	fmt.Fprintf(&b, "Staked $%s | P&L %s | avg odds %.2f\n", st.Staked.StringFixed(2), signed(st.ProfitLoss.StringFixed(2)), st.AvgOdds)
	fmt.Fprintf(&b, "Best %s | worst %s\n", signed(st.Best.StringFixed(2)), signed(st.Worst.StringFixed(2)))
	for _, sp := range st.BySport {
		fmt.Fprintf(&b, "• %s: %d bets, %d-%d, %s\n", sportLabel(sp.Sport), sp.Bets, sp.Won, sp.Lost, signed(sp.ProfitLoss.StringFixed(2)))
	}
	return b.String()
}

// Warnings renders betting pattern warnings.
func Warnings(warnings []string) string {
	if len(warnings) == 0 {
		return "✅ No concerning patterns in your betting.\n"
	}
	var b strings.Builder
	b.WriteString("*⚠️ Pattern warnings*\n")
	for _, w := range warnings {
		fmt.Fprintf(&b, "• %s\n", Escape(w))
	}
	return b.String()
}

// Hedge renders a hedge opportunity on a tracked bet.
func Hedge(h ledger.HedgeOpportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*🔒 Hedge available* on `%s` %s @ %.2f\n", h.Bet.ShortID(), name(h.Bet.Selection), h.Bet.Odds)
	for _, leg := range h.Legs {
		fmt.Fprintf(&b, "• back %s @ %.2f (%s): $%.2f\n", name(leg.Outcome), leg.Price, name(leg.Bookmaker), leg.Stake)
	}
	fmt.Fprintf(&b, "Locked profit: *$%.2f*\n", h.GuaranteedProfit)
	return b.String()
}

func signed(amount string) string {
	if strings.HasPrefix(amount, "-") {
		return "-$" + amount[1:]
	}
	return "+$" + amount
}
