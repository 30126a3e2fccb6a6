// Package telegram exposes the bot's commands over the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/config"
	"odds-edge-bot/internal/engine"
	"odds-edge-bot/internal/ledger"
	"odds-edge-bot/internal/report"
)

const (
	defaultStatsDays = 30
	listLimit        = 10
)

const helpText = `*🎰 Odds Edge Bot*

*Odds*
/sports - supported sports
/games <sport> - upcoming games
/odds <sport> - best prices per game

*Opportunities* (sport optional)
/arbitrage - guaranteed-profit splits
/livearb - arbitrage on games in progress
/kelly - Kelly-sized value bets
/edges - prices beating the no-vig consensus
/value - best single value bet per game
/steam - books disagreeing after a move
/sharp - sharp books pricing against the market
/scan - run every detector on all sports

*Bankroll*
/bankroll [amount] - show or set your bankroll
/betsize <odds> <prob%> - Kelly stake
/trackbet <sport> <odds> <stake> <selection>
/settle <id> <won|lost|void>
/pending - open bets
/hedge - hedges for open bets
/mystats [days] - performance
/patterns - betting pattern warnings

*Alerts*
/subscribe - push alerts to this chat
/unsubscribe - stop alerts
/status - bot status`

// Handler turns a command and its arguments into a reply. It holds no
// Telegram state so it can be driven directly.
type Handler struct {
	cfg       config.Config
	scanner   *engine.Scanner
	detectors []analysis.Detector
	db        *ledger.DB
	quota     func() api.Quota
	status    func() engine.Status
	logger    *slog.Logger
	now       func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithQuota reports the provider's remaining requests in /status.
func WithQuota(fn func() api.Quota) HandlerOption {
	return func(h *Handler) { h.quota = fn }
}

// WithStatus reports the alert loop's last cycle in /status.
func WithStatus(fn func() engine.Status) HandlerOption {
	return func(h *Handler) { h.status = fn }
}

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a command handler.
func NewHandler(cfg config.Config, scanner *engine.Scanner, db *ledger.DB, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg:       cfg,
		scanner:   scanner,
		detectors: config.Detectors(cfg),
		db:        db,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "telegram")
	return h
}

// Handle runs one command for a chat and returns the Markdown reply.
func (h *Handler) Handle(ctx context.Context, chatID int64, command, args string) string {
	if !h.cfg.IsChatAllowed(chatID) {
		h.logger.Warn("Unauthorized chat", "chat", chatID, "command", command)
		return "⛔ Unauthorized"
	}

	command = strings.ToLower(command)
	fields := strings.Fields(args)
	h.logger.Debug("Command", "chat", chatID, "command", command, "args", args)

	switch command {
	case "start", "help":
		return helpText
	case "sports":
		return report.Sports()
	case "games":
		return h.games(ctx, fields)
	case "odds":
		return h.odds(ctx, fields)
	case "scan":
		return h.scan(ctx)
	case "status":
		return h.statusText()
	case "bankroll":
		return h.bankroll(ctx, chatID, fields)
	case "betsize":
		return h.betSize(ctx, chatID, fields)
	case "trackbet":
		return h.trackBet(ctx, chatID, fields)
	case "settle":
		return h.settle(ctx, chatID, fields)
	case "pending":
		return h.pending(ctx, chatID)
	case "hedge":
		return h.hedge(ctx, chatID)
	case "mystats":
		return h.myStats(ctx, chatID, fields)
	case "patterns":
		return h.patterns(ctx, chatID)
	case "subscribe":
		return h.subscribe(ctx, chatID)
	case "unsubscribe":
		return h.unsubscribe(ctx, chatID)
	}

	if d, ok := analysis.FindDetector(h.detectors, command); ok {
		return h.detect(ctx, d, fields)
	}
	return "❓ Unknown command. Send /help for the list."
}

// sportArg resolves an optional sport argument. An empty key with an empty
// message means "all configured sports".
func sportArg(fields []string) (key, msg string) {
	if len(fields) == 0 {
		return "", ""
	}
	key, ok := api.ResolveSport(fields[0])
	if !ok {
		return "", fmt.Sprintf("Unknown sport %s. Send /sports for the list.", report.Escape(fields[0]))
	}
	return key, ""
}

func (h *Handler) fetchError(sport string, err error) string {
	h.logger.Error("Odds fetch failed", "sport", sport, "error", err)
	if engine.IsQuotaError(err) {
		return "⚠️ The odds provider rejected the request (quota exhausted or bad key). Try again later."
	}
	return "⚠️ Could not fetch odds right now. Try again later."
}

func (h *Handler) games(ctx context.Context, fields []string) string {
	if len(fields) == 0 {
		return "Usage: /games <sport>"
	}
	sport, msg := sportArg(fields)
	if msg != "" {
		return msg
	}
	games, err := h.scanner.Games(ctx, sport, listLimit)
	if err != nil {
		return h.fetchError(sport, err)
	}
	return report.Games(sport, games)
}

func (h *Handler) odds(ctx context.Context, fields []string) string {
	if len(fields) == 0 {
		return "Usage: /odds <sport>"
	}
	sport, msg := sportArg(fields)
	if msg != "" {
		return msg
	}
	rep := h.scanner.ScanSport(ctx, sport)
	if rep.Err != nil {
		return h.fetchError(sport, rep.Err)
	}
	snaps := rep.Snapshots
	if len(snaps) > listLimit {
		snaps = snaps[:listLimit]
	}
	return report.Snapshots(sport, snaps)
}

// detect runs one detector over a sport, or over every configured sport
// with the results ranked together.
func (h *Handler) detect(ctx context.Context, d analysis.Detector, fields []string) string {
	sport, msg := sportArg(fields)
	if msg != "" {
		return msg
	}

	if sport != "" {
		rep := h.scanner.ScanSport(ctx, sport, d)
		if rep.Err != nil {
			return h.fetchError(sport, rep.Err)
		}
		return report.Opportunities(d.Name, sport, rep.Games, rep.Results[d.Name], rep.Absences[d.Name])
	}

	reports := h.scanner.ScanSports(ctx, h.cfg.Sports, d)
	var (
		found  []analysis.Opportunity
		absent analysis.Absences
		games  int
		failed int
	)
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			h.logger.Warn("Sport unavailable", "sport", rep.Sport, "error", rep.Err)
			continue
		}
		games += rep.Games
		found = append(found, rep.Results[d.Name]...)
		a := rep.Absences[d.Name]
		absent.NoMarket += a.NoMarket
		absent.InsufficientSample += a.InsufficientSample
		absent.BelowThreshold += a.BelowThreshold
		absent.Other += a.Other
	}
	if failed > 0 && failed == len(reports) {
		return h.fetchError("all", reports[0].Err)
	}

	text := report.Opportunities(d.Name, "", games, analysis.Rank(found, d.TopK), absent)
	if failed > 0 {
		text += fmt.Sprintf("\n⚠️ %d of %d sports could not be fetched.\n", failed, len(reports))
	}
	return text
}

func (h *Handler) scan(ctx context.Context) string {
	reports := h.scanner.ScanSports(ctx, h.cfg.Sports, h.detectors...)

	var b strings.Builder
	fmt.Fprintf(&b, "*🔍 Scan* - %d sports\n", len(reports))
	total := 0
	for _, rep := range reports {
		label := api.SportName(rep.Sport)
		if rep.Err != nil {
			fmt.Fprintf(&b, "• %s: ⚠️ unavailable\n", report.Escape(label))
			continue
		}
		n := rep.Opportunities()
		total += n
		fmt.Fprintf(&b, "• %s: %d games, %d found", report.Escape(label), rep.Games, n)

		var parts []string
		for _, d := range h.detectors {
			if c := len(rep.Results[d.Name]); c > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", d.Name, c))
			}
		}
		if len(parts) > 0 {
			b.WriteString(" (" + strings.Join(parts, ", ") + ")")
		}
		b.WriteString("\n")
	}
	if total > 0 {
		b.WriteString("\nUse a detector command such as /arbitrage for details.\n")
	}
	return b.String()
}

func (h *Handler) statusText() string {
	var b strings.Builder
	b.WriteString("*🤖 Status*\n")
	fmt.Fprintf(&b, "Odds API key: %s\n", report.Escape(config.MaskedAPIKey(h.cfg.OddsAPIKey)))

	if h.quota != nil {
		if q := h.quota(); !q.UpdatedAt.IsZero() {
			fmt.Fprintf(&b, "Quota: %d remaining, %d used (%s)\n", q.Remaining, q.Used, report.FormatTime(q.UpdatedAt))
		} else {
			b.WriteString("Quota: unknown until the first request\n")
		}
	}

	if h.status != nil {
		if st := h.status(); !st.LastScan.IsZero() {
			fmt.Fprintf(&b, "Last scan: %s | %d games, %d found, %d alerts, %d failed\n",
				report.FormatTime(st.LastScan), st.Games, st.Opportunities, st.Alerts, st.Failures)
		} else {
			b.WriteString("Last scan: none yet\n")
		}
	}

	names := make([]string, 0, len(h.cfg.Sports))
	for _, s := range h.cfg.Sports {
		names = append(names, api.SportName(s))
	}
	fmt.Fprintf(&b, "Sports: %s\n", report.Escape(strings.Join(names, ", ")))
	fmt.Fprintf(&b, "Alerts: %s every %s\n", report.Escape(strings.Join(h.cfg.AlertDetectors, ", ")), h.cfg.ScanInterval)
	return b.String()
}

func (h *Handler) bankroll(ctx context.Context, chatID int64, fields []string) string {
	settings := h.db.Settings()
	if len(fields) == 0 {
		b, err := h.db.GetBankroll(ctx, chatID)
		if err != nil {
			return h.storageError("loading bankroll", err)
		}
		return report.Bankroll(b, settings)
	}

	amount, err := parseMoney(fields[0])
	if err != nil || !amount.IsPositive() {
		return "Usage: /bankroll <amount>, for example /bankroll 1000"
	}
	b, err := h.db.SetBankroll(ctx, chatID, amount)
	if err != nil {
		return h.storageError("setting bankroll", err)
	}
	return "✅ Bankroll set.\n" + report.Bankroll(b, settings)
}

func (h *Handler) betSize(ctx context.Context, chatID int64, fields []string) string {
	const usage = "Usage: /betsize <decimal odds> <win probability %>, for example /betsize 2.10 55"
	if len(fields) < 2 {
		return usage
	}
	price, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || price <= 1 {
		return "Odds must be decimal and greater than 1.\n" + usage
	}
	prob, err := parseProbability(fields[1])
	if err != nil {
		return "Probability must be between 0 and 100.\n" + usage
	}

	b, err := h.db.GetBankroll(ctx, chatID)
	if err != nil {
		return h.storageError("loading bankroll", err)
	}
	rec := h.db.Settings().BetSize(b.Balance, prob, price)
	return report.BetSize(rec, prob, price)
}

func (h *Handler) trackBet(ctx context.Context, chatID int64, fields []string) string {
	const usage = "Usage: /trackbet <sport> <odds> <stake> <selection>, for example /trackbet nba 2.10 50 Lakers"
	if len(fields) < 4 {
		return usage
	}
	sport, msg := sportArg(fields[:1])
	if msg != "" {
		return msg
	}
	price, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || price <= 1 {
		return "Odds must be decimal and greater than 1.\n" + usage
	}
	stake, err := parseMoney(fields[2])
	if err != nil || !stake.IsPositive() {
		return "Stake must be a positive amount.\n" + usage
	}
	selection := strings.Join(fields[3:], " ")

	event, canonical := h.matchEvent(ctx, sport, selection)
	if canonical != "" {
		selection = canonical
	}

	bet, err := h.db.AddBet(ctx, ledger.Bet{
		ChatID:    chatID,
		Sport:     sport,
		Event:     event,
		BetType:   string(api.MarketH2H),
		Selection: selection,
		Odds:      price,
		Stake:     stake,
	})
	if err != nil {
		return h.storageError("tracking bet", err)
	}

	text := "✅ Bet tracked\n" + report.Bet(bet)
	if event == "" {
		text += "Not matched to an upcoming game, so no hedge alerts for this bet.\n"
	}
	return text
}

// matchEvent finds the upcoming game a selection plays in. It returns empty
// strings when the odds cannot be fetched or no team matches.
func (h *Handler) matchEvent(ctx context.Context, sport, selection string) (event, team string) {
	games, err := h.scanner.Games(ctx, sport, 0)
	if err != nil {
		h.logger.Debug("Event lookup failed", "sport", sport, "error", err)
		return "", ""
	}
	for _, g := range games {
		switch {
		case strings.EqualFold(g.HomeTeam, selection):
			return g.AwayTeam + " @ " + g.HomeTeam, g.HomeTeam
		case strings.EqualFold(g.AwayTeam, selection):
			return g.AwayTeam + " @ " + g.HomeTeam, g.AwayTeam
		}
	}
	return "", ""
}

func (h *Handler) settle(ctx context.Context, chatID int64, fields []string) string {
	const usage = "Usage: /settle <bet id> <won|lost|void>"
	if len(fields) < 2 {
		return usage
	}
	outcome, err := ledger.ParseOutcome(fields[1])
	if err != nil {
		return usage
	}

	bet, adj, err := h.db.SettleBet(ctx, chatID, fields[0], outcome)
	switch {
	case errors.Is(err, ledger.ErrBetNotFound):
		return fmt.Sprintf("No bet matches %s. Send /pending to list your bets.", report.Escape(fields[0]))
	case errors.Is(err, ledger.ErrAmbiguousBet):
		return fmt.Sprintf("More than one bet matches %s. Use more characters of the id.", report.Escape(fields[0]))
	case errors.Is(err, ledger.ErrBetSettled):
		return "That bet is already settled."
	case err != nil:
		return h.storageError("settling bet", err)
	}
	return "✅ Settled\n" + report.Bet(bet) + report.Adjustment(adj)
}

func (h *Handler) pending(ctx context.Context, chatID int64) string {
	bets, err := h.db.PendingBets(ctx, chatID)
	if err != nil {
		return h.storageError("loading pending bets", err)
	}
	return report.Pending(bets)
}

// hedge prices every pending bet against the current market of its sport.
func (h *Handler) hedge(ctx context.Context, chatID int64) string {
	bets, err := h.db.PendingBets(ctx, chatID)
	if err != nil {
		return h.storageError("loading pending bets", err)
	}
	if len(bets) == 0 {
		return "No pending bets to hedge."
	}

	var sports []string
	seen := make(map[string]bool)
	for _, bet := range bets {
		if bet.Event != "" && !seen[bet.Sport] {
			seen[bet.Sport] = true
			sports = append(sports, bet.Sport)
		}
	}

	var hedges []ledger.HedgeOpportunity
	for _, rep := range h.scanner.ScanSports(ctx, sports) {
		if rep.Err != nil {
			h.logger.Warn("Sport unavailable", "sport", rep.Sport, "error", rep.Err)
			continue
		}
		for _, snap := range rep.Snapshots {
			hedges = append(hedges, ledger.FindHedgeOpportunities(bets, snap)...)
		}
	}

	if len(hedges) == 0 {
		return "No hedges available for your pending bets right now."
	}
	var b strings.Builder
	for i, hd := range hedges {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(report.Hedge(hd))
	}
	return b.String()
}

func (h *Handler) myStats(ctx context.Context, chatID int64, fields []string) string {
	days := defaultStatsDays
	if len(fields) > 0 {
		n, err := strconv.Atoi(fields[0])
		if err != nil || n <= 0 {
			return "Usage: /mystats [days]"
		}
		days = n
	}
	st, err := h.db.Performance(ctx, chatID, h.now().AddDate(0, 0, -days))
	if err != nil {
		return h.storageError("loading stats", err)
	}
	return report.Stats(st, days)
}

func (h *Handler) patterns(ctx context.Context, chatID int64) string {
	warnings, err := h.db.Patterns(ctx, chatID)
	if err != nil {
		return h.storageError("checking patterns", err)
	}
	return report.Warnings(warnings)
}

func (h *Handler) subscribe(ctx context.Context, chatID int64) string {
	if err := h.db.Subscribe(ctx, chatID); err != nil {
		return h.storageError("subscribing", err)
	}
	return fmt.Sprintf("🔔 Subscribed. This chat gets %s alerts.", report.Escape(strings.Join(h.cfg.AlertDetectors, ", ")))
}

func (h *Handler) unsubscribe(ctx context.Context, chatID int64) string {
	removed, err := h.db.Unsubscribe(ctx, chatID)
	if err != nil {
		return h.storageError("unsubscribing", err)
	}
	if !removed {
		return "This chat was not subscribed."
	}
	return "🔕 Unsubscribed."
}

func (h *Handler) storageError(what string, err error) string {
	h.logger.Error("Storage error", "op", what, "error", err)
	return "⚠️ Something went wrong " + what + ". Try again."
}

func parseMoney(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimPrefix(s, "$"))
}

// parseProbability accepts "55", "55%" or "0.55".
func parseProbability(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, err
	}
	if p > 1 {
		p /= 100
	}
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("probability %q out of range", s)
	}
	return p, nil
}
