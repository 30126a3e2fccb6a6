// Package server serves health, status and opportunity data over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/engine"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// StatusSource reports the alert loop's most recent cycle.
type StatusSource interface {
	LastStatus() engine.Status
}

// QuotaSource reports the odds provider's request allowance.
type QuotaSource interface {
	Quota() api.Quota
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the bot's HTTP surface.
type Server struct {
	scanner   *engine.Scanner
	detectors []analysis.Detector
	status    StatusSource
	quota     QuotaSource
	db        Pinger
	origins   []string
	logger    *slog.Logger
	started   time.Time
}

// Option configures a Server.
type Option func(*Server)

func WithStatus(s StatusSource) Option { return func(srv *Server) { srv.status = s } }
func WithQuota(q QuotaSource) Option   { return func(srv *Server) { srv.quota = q } }
func WithDB(db Pinger) Option          { return func(srv *Server) { srv.db = db } }

// WithCORS allows browser clients from origins.
func WithCORS(origins []string) Option { return func(srv *Server) { srv.origins = origins } }

func WithLogger(l *slog.Logger) Option { return func(srv *Server) { srv.logger = l } }

// New creates a Server.
func New(scanner *engine.Scanner, detectors []analysis.Detector, opts ...Option) *Server {
	s := &Server{
		scanner:   scanner,
		detectors: detectors,
		logger:    slog.Default(),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Odds Edge Bot - Running"))
	})
	r.Get("/health", s.health)
	r.Get("/status", s.statusJSON)
	r.Get("/opportunities/{sport}", s.opportunities)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Error("Health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type statusResponse struct {
	Uptime   string         `json:"uptime"`
	LastScan *scanStatus    `json:"last_scan,omitempty"`
	Quota    *quotaResponse `json:"quota,omitempty"`
}

type scanStatus struct {
	At            time.Time `json:"at"`
	Sports        int       `json:"sports"`
	Games         int       `json:"games"`
	Opportunities int       `json:"opportunities"`
	Alerts        int       `json:"alerts"`
	Failures      int       `json:"failures"`
}

type quotaResponse struct {
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) statusJSON(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Uptime: time.Since(s.started).Round(time.Second).String()}

	if s.status != nil {
		if st := s.status.LastStatus(); !st.LastScan.IsZero() {
			resp.LastScan = &scanStatus{
				At:            st.LastScan.UTC(),
				Sports:        st.Sports,
				Games:         st.Games,
				Opportunities: st.Opportunities,
				Alerts:        st.Alerts,
				Failures:      st.Failures,
			}
		}
	}
	if s.quota != nil {
		if q := s.quota.Quota(); !q.UpdatedAt.IsZero() {
			resp.Quota = &quotaResponse{Remaining: q.Remaining, Used: q.Used, UpdatedAt: q.UpdatedAt.UTC()}
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

type legResponse struct {
	Outcome   string  `json:"outcome"`
	Bookmaker string  `json:"bookmaker"`
	Price     float64 `json:"price"`
	Stake     float64 `json:"stake,omitempty"`
}

type opportunityResponse struct {
	Kind           string        `json:"kind"`
	GameID         string        `json:"game_id"`
	Matchup        string        `json:"matchup"`
	CommenceTime   time.Time     `json:"commence_time"`
	Market         string        `json:"market"`
	Score          float64       `json:"score"`
	ProfitMargin   float64       `json:"profit_margin,omitempty"`
	Edge           float64       `json:"edge,omitempty"`
	KellyStake     float64       `json:"kelly_stake,omitempty"`
	Movement       float64       `json:"movement,omitempty"`
	Confidence     string        `json:"confidence,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	Legs           []legResponse `json:"legs"`
}

func toOpportunityResponse(o analysis.Opportunity) opportunityResponse {
	resp := opportunityResponse{
		Kind:           string(o.Kind),
		GameID:         o.GameID,
		Matchup:        o.Matchup(),
		CommenceTime:   o.CommenceTime.UTC(),
		Market:         string(o.Market),
		Score:          o.Score,
		ProfitMargin:   o.ProfitMargin,
		Edge:           o.Edge,
		KellyStake:     o.KellyStake,
		Movement:       o.Movement,
		Confidence:     o.Confidence,
		Recommendation: o.Recommendation,
		Legs:           make([]legResponse, 0, len(o.Legs)),
	}
	for _, l := range o.Legs {
		resp.Legs = append(resp.Legs, legResponse{Outcome: l.Outcome, Bookmaker: l.Bookmaker, Price: l.Price, Stake: l.Stake})
	}
	return resp
}

// opportunities runs one detector over a sport.
// Query params: detector (default arbitrage)
func (s *Server) opportunities(w http.ResponseWriter, r *http.Request) {
	sport, ok := api.ResolveSport(chi.URLParam(r, "sport"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown sport")
		return
	}

	name := r.URL.Query().Get("detector")
	if name == "" {
		name = "arbitrage"
	}
	d, ok := analysis.FindDetector(s.detectors, name)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown detector")
		return
	}

	rep := s.scanner.ScanSport(r.Context(), sport, d)
	if rep.Err != nil {
		s.logger.Error("Scan failed", "sport", sport, "error", rep.Err)
		respondError(w, http.StatusBadGateway, "odds provider unavailable")
		return
	}

	opps := rep.Results[d.Name]
	out := make([]opportunityResponse, 0, len(opps))
	for _, o := range opps {
		out = append(out, toOpportunityResponse(o))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"sport":         sport,
		"detector":      d.Name,
		"games":         rep.Games,
		"count":         len(out),
		"opportunities": out,
		"scanned_at":    rep.ScannedAt.UTC(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": message,
		"code":    status,
	})
}
