package telegram

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/config"
	"odds-edge-bot/internal/engine"
	"odds-edge-bot/internal/ledger"
)

var testNow = time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	games map[string][]api.Game
	err   error
}

func (f *fakeSource) GetOdds(_ context.Context, sport string, _ []string) ([]api.Game, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.games[sport], nil
}

func h2hBook(name string, home, away float64) api.Bookmaker {
	return api.Bookmaker{
		Key:   name,
		Title: name,
		Markets: []api.Market{{Key: api.MarketH2H, Outcomes: []api.Outcome{
			{Name: "Lakers", Price: home},
			{Name: "Celtics", Price: away},
		}}},
	}
}

// arbSource serves one NBA game whose best prices form an arbitrage.
func arbSource() *fakeSource {
	return &fakeSource{games: map[string][]api.Game{
		"basketball_nba": {{
			ID:           "g1",
			SportKey:     "basketball_nba",
			CommenceTime: testNow.Add(2 * time.Hour),
			HomeTeam:     "Lakers",
			AwayTeam:     "Celtics",
			Bookmakers:   []api.Bookmaker{h2hBook("BookA", 2.10, 1.80), h2hBook("BookB", 1.75, 2.20)},
		}},
	}}
}

func testConfig() config.Config {
	return config.Config{
		OddsAPIKey:             "abcdef123456",
		Sports:                 []string{"basketball_nba"},
		AlertDetectors:         []string{"arbitrage"},
		ScanInterval:           time.Minute,
		ArbMinProfit:           config.DefaultArbMinProfit,
		LiveArbMinProfit:       config.DefaultLiveArbMinProfit,
		EdgeMin:                config.DefaultEdgeMin,
		KellyMin:               config.DefaultKellyMin,
		KellyCap:               config.DefaultKellyCap,
		SteamVarianceThreshold: config.DefaultSteamVarianceThreshold,
		SharpMinScore:          config.DefaultSharpMinScore,
		TopK:                   config.DefaultTopK,
	}
}

func newTestDB(t *testing.T) *ledger.DB {
	t.Helper()

	f, err := os.CreateTemp("", "telegram-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := ledger.NewDB(f.Name(), ledger.DefaultSettings())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestHandler(t *testing.T, cfg config.Config, src engine.OddsSource) (*Handler, *ledger.DB) {
	t.Helper()
	db := newTestDB(t)
	scanner := engine.NewScanner(src, engine.WithClock(func() time.Time { return testNow }))
	return NewHandler(cfg, scanner, db), db
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("reply missing %q:\n%s", w, got)
		}
	}
}

func TestHandleUnauthorized(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedChats = []int64{1}
	h, _ := newTestHandler(t, cfg, arbSource())

	if got := h.Handle(context.Background(), 2, "help", ""); got != "⛔ Unauthorized" {
		t.Errorf("got %q", got)
	}
	assertContains(t, h.Handle(context.Background(), 1, "help", ""), "/arbitrage", "/trackbet")
}

func TestHandleBasics(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), arbSource())
	ctx := context.Background()

	tests := []struct {
		cmd, args string
		want      string
	}{
		{"start", "", "Odds Edge Bot"},
		{"sports", "", "NBA"},
		{"games", "", "Usage: /games"},
		{"games", "nba", "Celtics @ Lakers"},
		{"odds", "nba", "best 2.10 (BookA)"},
		{"odds", "cricketz", "Unknown sport"},
		{"nope", "", "Unknown command"},
		{"status", "", "3456"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd+" "+tt.args, func(t *testing.T) {
			assertContains(t, h.Handle(ctx, 1, tt.cmd, tt.args), tt.want)
		})
	}
}

func TestHandleDetector(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), arbSource())
	ctx := context.Background()

	assertContains(t, h.Handle(ctx, 1, "arbitrage", "nba"), "Arbitrage", "1 found in 1 games")
	// without a sport every configured sport is ranked together
	assertContains(t, h.Handle(ctx, 1, "arbitrage", ""), "All sports", "1 found in 1 games")
	assertContains(t, h.Handle(ctx, 1, "scan", ""), "1 games", "arbitrage 1")
}

func TestHandleFetchErrors(t *testing.T) {
	ctx := context.Background()

	h, _ := newTestHandler(t, testConfig(), &fakeSource{err: errors.New("boom")})
	assertContains(t, h.Handle(ctx, 1, "odds", "nba"), "Could not fetch odds")
	assertContains(t, h.Handle(ctx, 1, "arbitrage", ""), "Could not fetch odds")
	assertContains(t, h.Handle(ctx, 1, "scan", ""), "unavailable")

	h, _ = newTestHandler(t, testConfig(), &fakeSource{err: &api.HTTPError{StatusCode: 429}})
	assertContains(t, h.Handle(ctx, 1, "steam", "nba"), "quota")
}

func TestHandleBankroll(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), arbSource())
	ctx := context.Background()

	assertContains(t, h.Handle(ctx, 1, "bankroll", ""), "Balance: $1000.00")
	assertContains(t, h.Handle(ctx, 1, "bankroll", "$500"), "Bankroll set", "Balance: $500.00")
	assertContains(t, h.Handle(ctx, 1, "bankroll", "-5"), "Usage")

	assertContains(t, h.Handle(ctx, 1, "betsize", "2.0 60"), "Stake:")
	assertContains(t, h.Handle(ctx, 1, "betsize", "2.0 60%"), "Stake:")
	assertContains(t, h.Handle(ctx, 1, "betsize", "0.9 60"), "greater than 1")
	assertContains(t, h.Handle(ctx, 1, "betsize", "2.0 140"), "between 0 and 100")
	assertContains(t, h.Handle(ctx, 1, "betsize", "2.0"), "Usage")
}

func TestHandleBetLifecycle(t *testing.T) {
	h, db := newTestHandler(t, testConfig(), arbSource())
	ctx := context.Background()
	const chat = 5

	assertContains(t, h.Handle(ctx, chat, "trackbet", "nba 3.0 100 lakers"), "Bet tracked", "Lakers", "Celtics @ Lakers")
	assertContains(t, h.Handle(ctx, chat, "trackbet", "nba 3.0"), "Usage")
	assertContains(t, h.Handle(ctx, chat, "pending", ""), "Pending bets", "Lakers")

	// best Celtics price 2.20 locks in 300 - 100 - 136.36
	assertContains(t, h.Handle(ctx, chat, "hedge", ""), "Hedge available", "63.64")

	bets, err := db.PendingBets(ctx, chat)
	if err != nil || len(bets) != 1 {
		t.Fatalf("PendingBets = %v, %v", bets, err)
	}
	id := bets[0].ShortID()

	assertContains(t, h.Handle(ctx, chat, "settle", id+" maybe"), "Usage")
	assertContains(t, h.Handle(ctx, chat, "settle", "zzzz won"), "No bet matches")
	assertContains(t, h.Handle(ctx, chat, "settle", id+" won"), "Settled", "WON", "$1200.00")
	assertContains(t, h.Handle(ctx, chat, "settle", id+" lost"), "already settled")

	assertContains(t, h.Handle(ctx, chat, "pending", ""), "No pending bets")
	assertContains(t, h.Handle(ctx, chat, "hedge", ""), "No pending bets")
	assertContains(t, h.Handle(ctx, chat, "mystats", ""), "last 30 days", "1 won")
	assertContains(t, h.Handle(ctx, chat, "mystats", "x"), "Usage")
	assertContains(t, h.Handle(ctx, chat, "patterns", ""), "No concerning patterns")
}

func TestHandleUnmatchedBet(t *testing.T) {
	h, _ := newTestHandler(t, testConfig(), arbSource())
	assertContains(t, h.Handle(context.Background(), 1, "trackbet", "nba 2.5 20 Warriors"), "Bet tracked", "no hedge alerts")
}

func TestHandleSubscriptions(t *testing.T) {
	h, db := newTestHandler(t, testConfig(), arbSource())
	ctx := context.Background()

	assertContains(t, h.Handle(ctx, 9, "subscribe", ""), "Subscribed", "arbitrage")
	assertContains(t, h.Handle(ctx, 9, "subscribe", ""), "Subscribed")

	subs, err := db.Subscribers(ctx)
	if err != nil || len(subs) != 1 || subs[0] != 9 {
		t.Fatalf("Subscribers = %v, %v", subs, err)
	}

	assertContains(t, h.Handle(ctx, 9, "unsubscribe", ""), "Unsubscribed")
	assertContains(t, h.Handle(ctx, 9, "unsubscribe", ""), "was not subscribed")
}

func TestParseProbability(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"55", 0.55, false},
		{"55%", 0.55, false},
		{"0.4", 0.4, false},
		{"0", 0, true},
		{"100", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseProbability(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseProbability(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (got-tt.want > 1e-9 || tt.want-got > 1e-9) {
			t.Errorf("parseProbability(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := SplitMessage("", 10); got != nil {
		t.Errorf("empty text = %v", got)
	}
	if got := SplitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("short text = %v", got)
	}

	text := "aaaa\nbbbb\ncccc\n"
	got := SplitMessage(text, 10)
	if len(got) != 2 || got[0] != "aaaa\nbbbb\n" || got[1] != "cccc\n" {
		t.Errorf("split on lines = %q", got)
	}

	long := strings.Repeat("é", 25)
	got = SplitMessage(long, 10)
	if len(got) != 3 || strings.Join(got, "") != long {
		t.Errorf("hard cut = %q", got)
	}
	for _, p := range got {
		if n := len([]rune(p)); n > 10 {
			t.Errorf("part has %d runes", n)
		}
	}
}
