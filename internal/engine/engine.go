package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"odds-edge-bot/internal/alerts"
	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/ledger"
)

// DefaultCleanupInterval is how often stale alert records are pruned.
const DefaultCleanupInterval = 10 * time.Minute

// BetSource lists tracked bets still awaiting settlement.
type BetSource interface {
	AllPendingBets(ctx context.Context) ([]ledger.Bet, error)
}

// Status summarizes the most recent scan cycle.
type Status struct {
	LastScan      time.Time
	Sports        int
	Games         int
	Opportunities int
	Alerts        int
	Failures      int
}

// Engine is the alert loop: it scans the configured sports on a fixed
// interval, pushes new opportunities to subscribers and tells bettors when
// a pending bet can be hedged.
type Engine struct {
	scanner   *Scanner
	notifier  *alerts.Notifier
	bets      BetSource // optional
	sports    []string
	detectors []analysis.Detector
	interval  time.Duration
	logger    *slog.Logger

	mu   sync.RWMutex
	last Status
}

// New creates a new Engine with all dependencies.
func New(
	scanner *Scanner,
	notifier *alerts.Notifier,
	bets BetSource,
	sports []string,
	detectors []analysis.Detector,
	interval time.Duration,
) *Engine {
	return &Engine{
		scanner:   scanner,
		notifier:  notifier,
		bets:      bets,
		sports:    sports,
		detectors: detectors,
		interval:  interval,
		logger:    slog.Default().With("component", "engine"),
	}
}

// Run starts the polling loop. It blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(DefaultCleanupInterval)
	defer cleanupTicker.Stop()

	e.logger.Info("Starting alert loop", "sports", e.sports, "interval", e.interval, "detectors", len(e.detectors))
	e.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Alert loop stopped")
			return

		case <-cleanupTicker.C:
			e.notifier.CleanupOldAlerts()

		case <-ticker.C:
			e.Scan(ctx)
		}
	}
}

// Scan performs a single cycle: scan every sport, alert opportunities and
// check pending bets for hedges.
func (e *Engine) Scan(ctx context.Context) Status {
	start := time.Now()
	reports := e.scanner.ScanSports(ctx, e.sports, e.detectors...)

	var pending []ledger.Bet
	if e.bets != nil {
		var err error
		pending, err = e.bets.AllPendingBets(ctx)
		if err != nil {
			e.notifier.LogError("loading pending bets", err)
		}
	}

	st := Status{LastScan: start, Sports: len(reports)}
	for _, rep := range reports {
		if rep.Err != nil {
			st.Failures++
			if IsQuotaError(rep.Err) {
				e.logger.Error("Odds API rejected the request", "sport", rep.Sport, "error", rep.Err)
			}
			continue
		}
		st.Games += rep.Games

		for _, d := range e.detectors {
			for _, opp := range rep.Results[d.Name] {
				st.Opportunities++
				st.Alerts += e.notifier.AlertOpportunity(ctx, d.Name, opp)
			}
		}

		if len(pending) > 0 {
			for _, snap := range rep.Snapshots {
				for _, h := range ledger.FindHedgeOpportunities(pending, snap) {
					if e.notifier.AlertHedge(ctx, h) {
						st.Alerts++
					}
				}
			}
		}
	}

	e.mu.Lock()
	e.last = st
	e.mu.Unlock()

	e.notifier.LogScan(st.Sports, st.Games, st.Opportunities, time.Since(start))
	return st
}

// LastStatus returns the summary of the latest completed scan.
func (e *Engine) LastStatus() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}
