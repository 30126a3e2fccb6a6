package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseURL   = "https://api.the-odds-api.com/v4"
	DefaultCallDelay = 1 * time.Second
	DefaultTimeout   = 10 * time.Second
)

// Market keys understood by the odds endpoint.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

var (
	DefaultRegions = []string{"us", "eu"}
	DefaultMarkets = []string{MarketH2H, MarketSpreads, MarketTotals}
)

// ErrMissingAPIKey is returned before any network call when no key is configured.
var ErrMissingAPIKey = errors.New("odds api key is not set")

// Game is one event with every bookmaker's quotes.
type Game struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker holds one book's markets for a game.
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is a single market (h2h, spreads, totals) at one bookmaker.
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is a priced selection. Price is decimal odds.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Sport is an entry from the sports listing endpoint.
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// Quota is the request allowance reported by the provider.
type Quota struct {
	Remaining int
	Used      int
	UpdatedAt time.Time
}

// OddsClient talks to The Odds API.
type OddsClient struct {
	apiKey  string
	baseURL string
	regions []string
	limiter *RateLimiter
	timeout time.Duration
	http    *RateLimitedClient
	logger  *slog.Logger

	mu    sync.RWMutex
	quota Quota
}

// Option configures an OddsClient.
type Option func(*OddsClient)

func WithBaseURL(u string) Option {
	return func(c *OddsClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithRegions(regions []string) Option {
	return func(c *OddsClient) {
		if len(regions) > 0 {
			c.regions = regions
		}
	}
}

// WithRateLimiter shares limiter with other clients of the same provider.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(c *OddsClient) { c.limiter = limiter }
}

func WithTimeout(d time.Duration) Option {
	return func(c *OddsClient) { c.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *OddsClient) { c.logger = l }
}

// NewOddsClient creates a client with a 1s call delay and 10s timeout unless overridden.
func NewOddsClient(apiKey string, opts ...Option) *OddsClient {
	c := &OddsClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		regions: DefaultRegions,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(DefaultCallDelay)
	}
	c.logger = c.logger.With("component", "odds_client")
	c.http = NewRateLimitedClient(c.limiter, c.timeout)
	return c
}

// GetOdds fetches upcoming games with decimal odds for sport. Records that
// fail to decode are skipped individually.
func (c *OddsClient) GetOdds(ctx context.Context, sport string, markets []string) ([]Game, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if len(markets) == 0 {
		markets = []string{MarketH2H}
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", strings.Join(c.regions, ","))
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "decimal")
	params.Set("dateFormat", "iso")

	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(sport), params.Encode())

	body, headers, err := c.http.Get(ctx, endpoint, nil)
	c.updateQuota(headers)
	if err != nil {
		return nil, fmt.Errorf("fetching odds for %s: %w", sport, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing odds for %s: %w", sport, err)
	}

	games := make([]Game, 0, len(raw))
	for i, rec := range raw {
		var g Game
		if err := json.Unmarshal(rec, &g); err != nil {
			c.logger.Warn("Skipping malformed game record", "sport", sport, "index", i, "error", err)
			continue
		}
		games = append(games, g)
	}

	return games, nil
}

// GetSports lists the sports the provider currently offers.
func (c *OddsClient) GetSports(ctx context.Context) ([]Sport, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)

	body, headers, err := c.http.Get(ctx, fmt.Sprintf("%s/sports?%s", c.baseURL, params.Encode()), nil)
	c.updateQuota(headers)
	if err != nil {
		return nil, fmt.Errorf("fetching sports: %w", err)
	}

	var sports []Sport
	if err := json.Unmarshal(body, &sports); err != nil {
		return nil, fmt.Errorf("parsing sports: %w", err)
	}
	return sports, nil
}

// Quota returns the allowance seen on the most recent response.
func (c *OddsClient) Quota() Quota {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.quota
}

func (c *OddsClient) updateQuota(h http.Header) {
	if h == nil {
		return
	}
	remaining, errR := strconv.Atoi(h.Get("x-requests-remaining"))
	used, errU := strconv.Atoi(h.Get("x-requests-used"))
	if errR != nil && errU != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if errR == nil {
		c.quota.Remaining = remaining
	}
	if errU == nil {
		c.quota.Used = used
	}
	c.quota.UpdatedAt = time.Now()
}
