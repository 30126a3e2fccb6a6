package report

import (
	"fmt"
	"strings"

	"odds-edge-bot/internal/analysis"
)

var detectorTitles = map[string]string{
	"arbitrage": "💰 Arbitrage",
	"livearb":   "⚡ Live Arbitrage",
	"kelly":     "📐 Kelly Bets",
	"edges":     "🎯 Betting Edges",
	"value":     "💎 Value Bets",
	"steam":     "🚂 Steam Moves",
	"sharp":     "🧠 Sharp Money",
}

// DetectorTitle is the heading shown for a detector's results.
func DetectorTitle(detector string) string {
	if t, ok := detectorTitles[detector]; ok {
		return t
	}
	return Escape(detector)
}

// Opportunities renders a detector's ranked results for one sport, or an
// explanation of why there are none.
func Opportunities(detector, sport string, games int, opps []analysis.Opportunity, absent analysis.Absences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* - %s\n", DetectorTitle(detector), sportLabel(sport))

	if len(opps) == 0 {
		b.WriteString(NoOpportunities(games, absent))
		return b.String()
	}

	fmt.Fprintf(&b, "%d found in %d games\n", len(opps), games)
	for i, opp := range opps {
		fmt.Fprintf(&b, "\n*%d.* %s", i+1, Opportunity(opp))
	}
	return b.String()
}

// NoOpportunities explains an empty result.
func NoOpportunities(games int, absent analysis.Absences) string {
	if games == 0 {
		return "No upcoming games with odds right now.\n"
	}
	var reasons []string
	if absent.BelowThreshold > 0 {
		reasons = append(reasons, fmt.Sprintf("%d below threshold", absent.BelowThreshold))
	}
	if absent.InsufficientSample > 0 {
		reasons = append(reasons, fmt.Sprintf("%d too few bookmakers", absent.InsufficientSample))
	}
	if absent.NoMarket > 0 {
		reasons = append(reasons, fmt.Sprintf("%d without a market", absent.NoMarket))
	}
	msg := fmt.Sprintf("Nothing found in %d games", games)
	if len(reasons) > 0 {
		msg += " (" + strings.Join(reasons, ", ") + ")"
	}
	return msg + ".\n"
}

// Opportunity renders one opportunity according to its kind.
func Opportunity(opp analysis.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n🕐 %s\n", matchup(opp.AwayTeam, opp.HomeTeam), FormatTime(opp.CommenceTime))

	switch opp.Kind {
	case analysis.KindArbitrage:
		fmt.Fprintf(&b, "Profit: *%.2f%%* | %s | risk %s\n", opp.ProfitMargin*100, Escape(opp.Rating), Escape(opp.Risk))
		for _, leg := range opp.Legs {
			fmt.Fprintf(&b, "• %s @ %.2f (%s): $%.2f → $%.2f\n",
				name(leg.Outcome), leg.Price, name(leg.Bookmaker), leg.Stake, leg.Payout)
		}
		fmt.Fprintf(&b, "Total stake $%.2f\n", opp.TotalStake)

	case analysis.KindKelly, analysis.KindEdge, analysis.KindValue:
		leg := opp.Legs[0]
		fmt.Fprintf(&b, "• %s @ %.2f (%s)\n", name(leg.Outcome), leg.Price, name(leg.Bookmaker))
		fmt.Fprintf(&b, "True %.1f%% vs implied %.1f%% | edge *%.1f%%*\n",
			opp.TrueProb*100, opp.ImpliedProb*100, opp.Edge*100)
		fmt.Fprintf(&b, "Kelly stake %.1f%% | %s | confidence %s\n", opp.KellyStake*100, Escape(opp.Rating), Escape(opp.Confidence))

	case analysis.KindSteam:
		leg := opp.Legs[0]
		fmt.Fprintf(&b, "• %s best %.2f (%s)\n", name(leg.Outcome), leg.Price, name(leg.Bookmaker))
		fmt.Fprintf(&b, "%s | movement %.1f%% | variance %.3f | score %.1f/10\n",
			Escape(opp.Rating), opp.Movement*100, opp.Variance, opp.Score)

	case analysis.KindSharp:
		leg := opp.Legs[0]
		fmt.Fprintf(&b, "• %s @ %.2f (%s)\n", name(leg.Outcome), leg.Price, name(leg.Bookmaker))
		fmt.Fprintf(&b, "Sharp avg %.2f vs soft avg %.2f | efficiency %s\n", opp.SharpAvg, opp.SoftAvg, Escape(opp.Rating))
		fmt.Fprintf(&b, "Score *%.0f/100* | confidence %s\n", opp.Score, Escape(opp.Confidence))
	}

	if opp.Recommendation != "" {
		fmt.Fprintf(&b, "➡️ %s\n", Escape(opp.Recommendation))
	}
	return b.String()
}
