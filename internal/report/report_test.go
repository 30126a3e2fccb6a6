package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/ledger"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 10, 20, 23, 30, 0, 0, time.FixedZone("PDT", -7*3600))
	if got := FormatTime(ts); got != "10/21 06:30 UTC" {
		t.Errorf("FormatTime = %q, want %q", got, "10/21 06:30 UTC")
	}
	if got := FormatTime(time.Time{}); got != "TBD" {
		t.Errorf("zero time = %q, want TBD", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Lakers", 30, "Lakers"},
		{"Wolverhampton Wanderers Football Club Reserves", 30, "Wolverhampton Wanderers Foo..."},
		{"Borussia Mönchengladbach", 12, "Borussia ..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if n := len([]rune(got)); n > tt.n {
			t.Errorf("Truncate(%q, %d) has %d runes", tt.in, tt.n, n)
		}
	}
}

func TestEscape(t *testing.T) {
	if got := Escape("bet_365 *live* [x] `y`"); got != "bet\\_365 \\*live\\* \\[x] \\`y\\`" {
		t.Errorf("Escape = %q", got)
	}
}

func TestArbitrageOpportunity(t *testing.T) {
	opp := analysis.Opportunity{
		Kind:         analysis.KindArbitrage,
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		CommenceTime: time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC),
		ProfitMargin: 0.0744,
		TotalStake:   100,
		Rating:       "EXCELLENT",
		Risk:         "HIGH",
		Legs: []analysis.Leg{
			{Outcome: "Lakers", Bookmaker: "BookA", Price: 2.10, Stake: 51.16, Payout: 107.44},
			{Outcome: "Celtics", Bookmaker: "BookB", Price: 2.20, Stake: 48.84, Payout: 107.44},
		},
		Recommendation: "FAST: place every leg within minutes",
	}

	text := Opportunity(opp)
	for _, want := range []string{
		"Celtics @ Lakers",
		"10/20 18:00 UTC",
		"Profit: *7.44%*",
		"Lakers @ 2.10 (BookA): $51.16 → $107.44",
		"Total stake $100.00",
		"FAST",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestOpportunitiesEmpty(t *testing.T) {
	text := Opportunities("steam", "basketball_nba", 12, nil, analysis.Absences{BelowThreshold: 10, InsufficientSample: 2})
	if !strings.Contains(text, "Steam Moves") || !strings.Contains(text, "NBA") {
		t.Errorf("missing heading in %q", text)
	}
	if !strings.Contains(text, "Nothing found in 12 games (10 below threshold, 2 too few bookmakers)") {
		t.Errorf("missing absence summary in %q", text)
	}

	if text := Opportunities("arbitrage", "basketball_nba", 0, nil, analysis.Absences{}); !strings.Contains(text, "No upcoming games") {
		t.Errorf("expected no-games message, got %q", text)
	}
}

func TestBankrollAndStats(t *testing.T) {
	s := ledger.DefaultSettings()
	b := ledger.Bankroll{Balance: decimal.NewFromInt(850), Starting: decimal.NewFromInt(1000)}

	text := Bankroll(b, s)
	for _, want := range []string{"$850.00", "$1000.00", "Stop-loss $800.00", "take-profit $1500.00", "NORMAL"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	st := ledger.Stats{
		Total: 2, Won: 1, Lost: 1, WinRate: 0.5, ROI: -0.1,
		Staked: decimal.NewFromInt(100), ProfitLoss: decimal.NewFromInt(-10),
		Best: decimal.NewFromInt(40), Worst: decimal.NewFromInt(-50),
	}
	text = Stats(st, 30)
	for _, want := range []string{"last 30 days", "Win rate: 50.0%", "ROI: -10.0%", "P&L -$10.00", "Best +$40.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}

	if text := Stats(ledger.Stats{}, 7); !strings.Contains(text, "No bets tracked") {
		t.Errorf("expected empty stats message, got %q", text)
	}
}

// bareUnderscores counts underscores that would open a Markdown italic span.
func bareUnderscores(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && (i == 0 || s[i-1] != '\\') {
			n++
		}
	}
	return n
}

func TestLabelsEscaped(t *testing.T) {
	arb := analysis.Opportunity{
		Kind:         analysis.KindArbitrage,
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		ProfitMargin: 0.012,
		Rating:       "FAIR",
		Risk:         "VERY_LOW",
		Legs: []analysis.Leg{
			{Outcome: "Lakers", Bookmaker: "pinnacle", Price: 2.05},
			{Outcome: "Celtics", Bookmaker: "william_hill", Price: 2.02},
		},
	}
	kelly := analysis.Opportunity{
		Kind:       analysis.KindKelly,
		HomeTeam:   "Lakers",
		AwayTeam:   "Celtics",
		Rating:     "VERY_GOOD",
		Confidence: "VERY_HIGH",
		Legs:       []analysis.Leg{{Outcome: "Lakers", Bookmaker: "BookA", Price: 2.4}},
	}
	s := ledger.DefaultSettings()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"arbitrage risk", Opportunity(arb), `risk VERY\_LOW`},
		{"kelly rating", Opportunity(kelly), `VERY\_GOOD`},
		{"stop loss", Bankroll(ledger.Bankroll{Balance: decimal.NewFromInt(700), Starting: decimal.NewFromInt(1000)}, s), `STOP\_LOSS`},
		{"take profit", Bankroll(ledger.Bankroll{Balance: decimal.NewFromInt(1600), Starting: decimal.NewFromInt(1000)}, s), `TAKE\_PROFIT`},
		{"bet size", BetSize(ledger.BetRecommendation{Amount: decimal.NewFromInt(50), Risk: "VERY_HIGH"}, 0.6, 2.0), `VERY\_HIGH`},
		{"no bet", BetSize(ledger.BetRecommendation{Amount: decimal.Zero, Reason: "no_edge"}, 0.4, 2.0), `no\_edge`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := bareUnderscores(tt.text); n != 0 {
				t.Errorf("%d bare underscores in:\n%s", n, tt.text)
			}
			if !strings.Contains(tt.text, tt.want) {
				t.Errorf("missing %q in:\n%s", tt.want, tt.text)
			}
		})
	}
}
