package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/odds"
)

// Scanner defaults.
const (
	DefaultWorkers    = 6
	DefaultLookahead  = 48 * time.Hour
	DefaultLookbehind = 3 * time.Hour
)

// OddsSource fetches games with bookmaker odds for a sport.
type OddsSource interface {
	GetOdds(ctx context.Context, sport string, markets []string) ([]api.Game, error)
}

// SportReport is the outcome of scanning one sport.
type SportReport struct {
	Sport     string
	Games     int // games inside the time window
	Snapshots []odds.MarketSnapshot
	Rejected  int // games the aggregator could not use
	Results   map[string][]analysis.Opportunity
	Absences  map[string]analysis.Absences
	Err       error
	ScannedAt time.Time
}

// Opportunities counts results across detectors.
func (r SportReport) Opportunities() int {
	n := 0
	for _, opps := range r.Results {
		n += len(opps)
	}
	return n
}

// Scanner fetches, aggregates and scores one or more sports.
type Scanner struct {
	source     OddsSource
	workers    int
	lookbehind time.Duration
	lookahead  time.Duration
	markets    []string
	logger     *slog.Logger
	now        func() time.Time
}

type ScannerOption func(*Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithWindow limits scans to games starting between now-behind and now+ahead.
func WithWindow(behind, ahead time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.lookbehind = behind
		s.lookahead = ahead
	}
}

func WithMarkets(markets []string) ScannerOption {
	return func(s *Scanner) { s.markets = markets }
}

func WithScannerLogger(l *slog.Logger) ScannerOption {
	return func(s *Scanner) { s.logger = l }
}

func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

func NewScanner(source OddsSource, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		source:     source,
		workers:    DefaultWorkers,
		lookbehind: DefaultLookbehind,
		lookahead:  DefaultLookahead,
		markets:    api.DefaultMarkets,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scanner")
	return s
}

// ScanSport fetches one sport, aggregates every upcoming game and runs the
// detectors over the snapshots. Each detector's results are ranked and cut
// to its top-K. A fetch error is reported in Err; it never panics.
func (s *Scanner) ScanSport(ctx context.Context, sport string, detectors ...analysis.Detector) SportReport {
	rep := SportReport{
		Sport:     sport,
		Results:   make(map[string][]analysis.Opportunity),
		Absences:  make(map[string]analysis.Absences),
		ScannedAt: s.now(),
	}

	games, err := s.source.GetOdds(ctx, sport, s.markets)
	if err != nil {
		rep.Err = fmt.Errorf("fetching %s odds: %w", sport, err)
		s.logger.Warn("Fetch failed", "sport", sport, "error", err)
		return rep
	}

	upcoming := UpcomingGames(games, rep.ScannedAt, s.lookbehind, s.lookahead, 0)
	rep.Games = len(upcoming)

	for _, g := range upcoming {
		snap, err := odds.Aggregate(g, odds.AllMarkets...)
		if err != nil {
			rep.Rejected++
			s.logger.Debug("Game skipped", "sport", sport, "game", g.ID, "reason", err)
			continue
		}
		if snap.Malformed > 0 || snap.OutOfRange > 0 {
			s.logger.Debug("Prices discarded", "game", g.ID, "malformed", snap.Malformed, "out_of_range", snap.OutOfRange)
		}
		rep.Snapshots = append(rep.Snapshots, snap)
	}

	for _, d := range detectors {
		var found []analysis.Opportunity
		absent := analysis.Absences{}
		for _, snap := range rep.Snapshots {
			opp, err := d.Scorer.Score(snap)
			if err != nil {
				absent.Add(err)
				continue
			}
			found = append(found, opp)
		}
		rep.Results[d.Name] = analysis.Rank(found, d.TopK)
		rep.Absences[d.Name] = absent
	}

	s.logger.Debug("Sport scanned", "sport", sport, "games", rep.Games, "snapshots", len(rep.Snapshots), "opportunities", rep.Opportunities())
	return rep
}

// ScanSports scans sports concurrently on a bounded pool. Reports come back
// in the order of sports; one sport failing does not stop the others.
func (s *Scanner) ScanSports(ctx context.Context, sports []string, detectors ...analysis.Detector) []SportReport {
	reports := make([]SportReport, len(sports))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, sport := range sports {
		i, sport := i, sport
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				reports[i] = SportReport{Sport: sport, Err: err, ScannedAt: s.now()}
				return nil
			}
			reports[i] = s.ScanSport(ctx, sport, detectors...)
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

// UpcomingGames keeps games starting within [now-behind, now+ahead], sorted
// by start time. limit <= 0 keeps all.
func UpcomingGames(games []api.Game, now time.Time, behind, ahead time.Duration, limit int) []api.Game {
	from, to := now.Add(-behind), now.Add(ahead)

	var out []api.Game
	for _, g := range games {
		if g.CommenceTime.Before(from) || g.CommenceTime.After(to) {
			continue
		}
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CommenceTime.Before(out[j].CommenceTime)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// IsQuotaError reports whether err came from an exhausted or rejected API key.
func IsQuotaError(err error) bool {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 401 || httpErr.StatusCode == 429
	}
	return false
}

// Games fetches a sport and returns its games inside the scan window,
// soonest first, keeping at most limit (all when limit <= 0).
func (s *Scanner) Games(ctx context.Context, sport string, limit int) ([]api.Game, error) {
	games, err := s.source.GetOdds(ctx, sport, []string{api.MarketH2H})
	if err != nil {
		return nil, fmt.Errorf("fetching %s odds: %w", sport, err)
	}
	return UpcomingGames(games, s.now(), s.lookbehind, s.lookahead, limit), nil
}
