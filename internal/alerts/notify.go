package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/ledger"
	"odds-edge-bot/internal/report"
)

// Sender delivers a message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// SubscriberSource lists chats that receive live alerts.
type SubscriberSource interface {
	Subscribers(ctx context.Context) ([]int64, error)
}

// Deduper decides whether an alert key may fire now. Allow returns false
// while the key is still cooling down.
type Deduper interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// staleAfter is how long CleanupOldAlerts keeps in-memory entries.
const staleAfter = time.Hour

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts

	dedupe Deduper // shared dedupe; in-memory map when nil
	sender Sender
	subs   SubscriberSource
	logger *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSender fans alerts out to every subscribed chat.
func WithSender(sender Sender, subs SubscriberSource) Option {
	return func(n *Notifier) {
		n.sender = sender
		n.subs = subs
	}
}

// WithDeduper shares cooldowns through d, e.g. a RedisDeduper.
func WithDeduper(d Deduper) Option {
	return func(n *Notifier) { n.dedupe = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// NewNotifier creates a new notifier
func NewNotifier(cooldown time.Duration, opts ...Option) *Notifier {
	n := &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("component", "alerts")
	return n
}

// AlertKey identifies an opportunity for deduplication: the same detector
// kind, game, market and legs.
func AlertKey(opp analysis.Opportunity) string {
	outcomes := make([]string, len(opp.Legs))
	for i, leg := range opp.Legs {
		outcomes[i] = leg.Outcome
	}
	return fmt.Sprintf("%s-%s-%s-%s", opp.Kind, opp.GameID, opp.Market, strings.Join(outcomes, "|"))
}

// checkCooldown records key and reports whether it fired within the cooldown.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			return true
		}
	}
	n.lastAlerts[key] = time.Now()
	return false
}

// suppressed consults the shared deduper, falling back to the in-memory
// cooldown when it is missing or failing.
func (n *Notifier) suppressed(ctx context.Context, key string) bool {
	if n.dedupe != nil {
		ok, err := n.dedupe.Allow(ctx, key)
		if err == nil {
			return !ok
		}
		n.logger.Warn("Dedupe unavailable, using local cooldown", "key", key, "error", err)
	}
	return n.checkCooldown(key)
}

// AlertOpportunity logs an opportunity and pushes it to subscribers unless
// it fired within the cooldown. It returns the number of chats reached.
func (n *Notifier) AlertOpportunity(ctx context.Context, detector string, opp analysis.Opportunity) int {
	if n.suppressed(ctx, AlertKey(opp)) {
		return 0
	}

	n.logger.Info("Opportunity",
		"detector", detector,
		"kind", opp.Kind,
		"sport", opp.Sport,
		"game", opp.Matchup(),
		"score", opp.Score,
		"legs", len(opp.Legs),
	)

	text := "🚨 *" + report.DetectorTitle(detector) + " alert*\n" + report.Opportunity(opp)
	return n.broadcast(ctx, text)
}

// AlertHedge tells a bet's owner it can lock in a profit.
func (n *Notifier) AlertHedge(ctx context.Context, hedge ledger.HedgeOpportunity) bool {
	if n.suppressed(ctx, "hedge-"+hedge.Bet.ID) {
		return false
	}

	n.logger.Info("Hedge available",
		"bet", hedge.Bet.ShortID(),
		"chat", hedge.Bet.ChatID,
		"profit", hedge.GuaranteedProfit,
	)

	if n.sender == nil {
		return false
	}
	if err := n.sender.Send(ctx, hedge.Bet.ChatID, report.Hedge(hedge)); err != nil {
		n.logger.Error("Sending hedge alert", "chat", hedge.Bet.ChatID, "error", err)
		return false
	}
	return true
}

func (n *Notifier) broadcast(ctx context.Context, text string) int {
	if n.sender == nil || n.subs == nil {
		return 0
	}

	chats, err := n.subs.Subscribers(ctx)
	if err != nil {
		n.logger.Error("Loading subscribers", "error", err)
		return 0
	}

	sent := 0
	for _, chatID := range chats {
		if err := n.sender.Send(ctx, chatID, text); err != nil {
			n.logger.Error("Sending alert", "chat", chatID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// LogScan logs a scan cycle summary.
func (n *Notifier) LogScan(sports, games, opps int, took time.Duration) {
	n.logger.Info("Scan complete", "sports", sports, "games", games, "opportunities", opps, "took", took.Round(time.Millisecond))
}

// LogError logs an error
func (n *Notifier) LogError(what string, err error) {
	n.logger.Error("Error", "context", what, "error", err)
}

// CleanupOldAlerts removes stale alert records
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-max(staleAfter, n.cooldown))
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}
