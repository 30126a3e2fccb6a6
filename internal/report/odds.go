package report

import (
	"fmt"
	"strings"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/odds"
)

// Snapshots renders the aggregated h2h market for each game.
func Snapshots(sport string, snaps []odds.MarketSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📊 Odds* - %s\n", sportLabel(sport))
	if len(snaps) == 0 {
		b.WriteString("No upcoming games with odds right now.\n")
		return b.String()
	}

	for _, s := range snaps {
		fmt.Fprintf(&b, "\n*%s*\n🕐 %s | %d books | vig %.1f%%\n",
			matchup(s.AwayTeam, s.HomeTeam), FormatTime(s.CommenceTime), s.BookCount, s.Overround*100)
		for _, o := range s.H2H() {
			fmt.Fprintf(&b, "• %s: best %.2f (%s), avg %.2f\n", name(o.Name), o.Best, name(o.BestBook), o.Mean)
		}
	}
	return b.String()
}

// Games lists upcoming games for a sport.
func Games(sport string, games []api.Game) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*📅 Upcoming* - %s\n", sportLabel(sport))
	if len(games) == 0 {
		b.WriteString("No upcoming games.\n")
		return b.String()
	}
	for _, g := range games {
		fmt.Fprintf(&b, "• %s - %s (%d books)\n", FormatTime(g.CommenceTime), matchup(g.AwayTeam, g.HomeTeam), len(g.Bookmakers))
	}
	return b.String()
}

// Sports lists the supported sport aliases.
func Sports() string {
	var b strings.Builder
	b.WriteString("*Supported sports*\n")
	for _, s := range api.Sports {
		fmt.Fprintf(&b, "%s %s: `%s`\n", s.Emoji, s.Name, s.Alias)
	}
	return b.String()
}
