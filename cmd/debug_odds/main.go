// Command debug_odds prints which bookmakers quote which markets for the
// next game of a sport, along with the remaining API quota.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/engine"
	"odds-edge-bot/internal/odds"
)

func main() {
	_ = godotenv.Load()

	sport := "nba"
	if len(os.Args) > 1 {
		sport = os.Args[1]
	}
	key, ok := api.ResolveSport(sport)
	if !ok {
		key = sport
	}

	client := api.NewOddsClient(os.Getenv("ODDS_API_KEY"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	games, err := client.GetOdds(ctx, key, api.DefaultMarkets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetching %s: %v\n", key, err)
		os.Exit(1)
	}
	upcoming := engine.UpcomingGames(games, time.Now(), engine.DefaultLookbehind, engine.DefaultLookahead, 1)
	if len(upcoming) == 0 {
		fmt.Printf("No upcoming %s games\n", api.SportName(key))
		return
	}

	game := upcoming[0]
	fmt.Printf("Game: %s @ %s (%s)\n", game.AwayTeam, game.HomeTeam, game.CommenceTime.Format(time.RFC3339))
	fmt.Println("\nBookmakers:")
	for _, b := range game.Bookmakers {
		has := map[string]bool{}
		for _, m := range b.Markets {
			has[m.Key] = true
		}
		marker := ""
		if api.IsSharpBook(b.Key) {
			marker = " <-- SHARP"
		}
		fmt.Printf("  %-20s H2H=%v Spreads=%v Totals=%v%s\n", b.Title, has[api.MarketH2H], has[api.MarketSpreads], has[api.MarketTotals], marker)
	}

	if snap, err := odds.Aggregate(game, odds.AllMarkets...); err == nil {
		fmt.Printf("\nH2H overround %.2f%%, discarded prices: %d malformed, %d out of range\n",
			snap.Overround*100, snap.Malformed, snap.OutOfRange)
	}

	q := client.Quota()
	fmt.Printf("\nQuota: %d remaining, %d used\n", q.Remaining, q.Used)
}
