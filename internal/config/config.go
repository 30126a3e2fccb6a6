package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"odds-edge-bot/internal/analysis"
)

// Defaults for configuration values.
const (
	DefaultOddsAPIBaseURL         = "https://api.the-odds-api.com/v4"
	DefaultRegions                = "us,eu"
	DefaultCallDelay              = 1000 * time.Millisecond
	DefaultAPITimeout             = 10 * time.Second
	DefaultDBPath                 = "/data/bot.db"
	DefaultPort                   = "8080"
	DefaultLogLevel               = "info"
	DefaultScanInterval           = 5 * time.Minute
	DefaultScanWorkers            = 6
	DefaultLookahead              = 48 * time.Hour
	DefaultLookbehind             = 3 * time.Hour
	DefaultSports                 = "basketball_nba,americanfootball_nfl,baseball_mlb,icehockey_nhl,soccer_epl"
	DefaultAlertDetectors         = "arbitrage,steam"
	DefaultAlertCooldown          = 5 * time.Minute
	DefaultCleanupInterval        = 10 * time.Minute
	DefaultArbMinProfit           = 0.005
	DefaultLiveArbMinProfit       = 0.02
	DefaultEdgeMin                = 0.05
	DefaultKellyMin               = 0.02
	DefaultKellyCap               = 0.25
	DefaultSteamVarianceThreshold = 0.15
	DefaultSharpMinScore          = 70
	DefaultTopK                   = 5
	DefaultBankroll               = 1000
	DefaultMaxBetPct              = 0.05
	DefaultKellyFraction          = 0.25
	DefaultStopLossPct            = 0.20
	DefaultTakeProfitPct          = 0.50
	DefaultMinBet                 = 10
	DefaultMaxBet                 = 1000
)

// Config holds all application configuration.
type Config struct {
	OddsAPIKey     string
	OddsAPIBaseURL string
	Regions        []string
	CallDelay      time.Duration
	APITimeout     time.Duration

	TelegramToken string
	AllowedChats  []int64 // empty = everyone

	DBPath   string
	Port     string
	RedisURL string // optional; in-memory dedupe when empty
	LogLevel string

	CORSOrigins []string // origins allowed to call the HTTP API; none when empty

	// Scanning and alerts
	ScanInterval   time.Duration
	ScanWorkers    int
	Lookahead      time.Duration
	Lookbehind     time.Duration
	Sports         []string
	AlertDetectors []string
	AlertCooldown  time.Duration

	// Detector thresholds
	ArbMinProfit           float64
	LiveArbMinProfit       float64
	EdgeMin                float64
	KellyMin               float64
	KellyCap               float64
	SteamVarianceThreshold float64
	SharpMinScore          float64
	TopK                   int

	// Bankroll defaults for new chats
	Bankroll      float64
	MaxBetPct     float64
	KellyFraction float64
	StopLossPct   float64
	TakeProfitPct float64
	MinBet        float64
	MaxBet        float64
}

// Load reads configuration from environment variables (and .env file if present).
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		OddsAPIKey:     os.Getenv("ODDS_API_KEY"),
		OddsAPIBaseURL: envString("ODDS_API_BASE_URL", DefaultOddsAPIBaseURL),
		Regions:        splitList(envString("ODDS_REGIONS", DefaultRegions)),
		CallDelay:      envMillis("API_CALL_DELAY_MS", DefaultCallDelay),
		APITimeout:     envSeconds("API_TIMEOUT_SEC", DefaultAPITimeout),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AllowedChats:  parseChatIDs(os.Getenv("TELEGRAM_ALLOWED_CHATS")),

		DBPath:   envString("DB_PATH", DefaultDBPath),
		Port:     envString("PORT", DefaultPort),
		RedisURL: os.Getenv("REDIS_URL"),
		LogLevel: envString("LOG_LEVEL", DefaultLogLevel),

		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		ScanInterval:   envSeconds("SCAN_INTERVAL_SEC", DefaultScanInterval),
		ScanWorkers:    envInt("SCAN_WORKERS", DefaultScanWorkers),
		Lookahead:      envHours("SCAN_LOOKAHEAD_HOURS", DefaultLookahead),
		Lookbehind:     envHours("SCAN_LOOKBEHIND_HOURS", DefaultLookbehind),
		Sports:         splitList(envString("DEFAULT_SPORTS", DefaultSports)),
		AlertDetectors: splitList(envString("ALERT_DETECTORS", DefaultAlertDetectors)),
		AlertCooldown:  envSeconds("ALERT_COOLDOWN_SEC", DefaultAlertCooldown),

		ArbMinProfit:           envFloat("ARB_MIN_PROFIT", DefaultArbMinProfit),
		LiveArbMinProfit:       envFloat("LIVE_ARB_MIN_PROFIT", DefaultLiveArbMinProfit),
		EdgeMin:                envFloat("EDGE_MIN", DefaultEdgeMin),
		KellyMin:               envFloat("KELLY_MIN", DefaultKellyMin),
		KellyCap:               envFloat("KELLY_CAP", DefaultKellyCap),
		SteamVarianceThreshold: envFloat("STEAM_VARIANCE_THRESHOLD", DefaultSteamVarianceThreshold),
		SharpMinScore:          envFloat("SHARP_MIN_SCORE", DefaultSharpMinScore),
		TopK:                   envInt("TOP_K", DefaultTopK),

		Bankroll:      envFloat("BANKROLL_DEFAULT", DefaultBankroll),
		MaxBetPct:     envFloat("MAX_BET_PCT", DefaultMaxBetPct),
		KellyFraction: envFloat("KELLY_FRACTION", DefaultKellyFraction),
		StopLossPct:   envFloat("STOP_LOSS_PCT", DefaultStopLossPct),
		TakeProfitPct: envFloat("TAKE_PROFIT_PCT", DefaultTakeProfitPct),
		MinBet:        envFloat("MIN_BET", DefaultMinBet),
		MaxBet:        envFloat("MAX_BET", DefaultMaxBet),
	}

	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if cfg.CallDelay < 0 {
		return fmt.Errorf("API_CALL_DELAY_MS must be non-negative, got %v", cfg.CallDelay)
	}
	if cfg.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT_SEC must be positive, got %v", cfg.APITimeout)
	}
	if len(cfg.Regions) == 0 {
		return fmt.Errorf("ODDS_REGIONS must name at least one region")
	}
	if cfg.ScanInterval < 10*time.Second {
		return fmt.Errorf("SCAN_INTERVAL_SEC must be at least 10s, got %v", cfg.ScanInterval)
	}
	if cfg.ScanWorkers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1, got %d", cfg.ScanWorkers)
	}
	if cfg.Lookahead <= 0 || cfg.Lookbehind < 0 {
		return fmt.Errorf("SCAN_LOOKAHEAD_HOURS must be positive and SCAN_LOOKBEHIND_HOURS non-negative")
	}
	if cfg.AlertCooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN_SEC must be non-negative, got %v", cfg.AlertCooldown)
	}
	for _, name := range cfg.AlertDetectors {
		if _, ok := analysis.FindDetector(analysis.DefaultDetectors(), name); !ok {
			return fmt.Errorf("ALERT_DETECTORS: unknown detector %q", name)
		}
	}

	for _, r := range []struct {
		env string
		val float64
	}{
		{"ARB_MIN_PROFIT", cfg.ArbMinProfit},
		{"LIVE_ARB_MIN_PROFIT", cfg.LiveArbMinProfit},
		{"EDGE_MIN", cfg.EdgeMin},
		{"KELLY_MIN", cfg.KellyMin},
		{"MAX_BET_PCT", cfg.MaxBetPct},
		{"STOP_LOSS_PCT", cfg.StopLossPct},
	} {
		if r.val < 0 || r.val > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", r.env, r.val)
		}
	}
	if cfg.KellyCap <= 0 || cfg.KellyCap > 1 {
		return fmt.Errorf("KELLY_CAP must be between 0 and 1, got %f", cfg.KellyCap)
	}
	if cfg.KellyFraction <= 0 || cfg.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION must be between 0 and 1, got %f", cfg.KellyFraction)
	}
	if cfg.SteamVarianceThreshold <= 0 {
		return fmt.Errorf("STEAM_VARIANCE_THRESHOLD must be positive, got %f", cfg.SteamVarianceThreshold)
	}
	if cfg.SharpMinScore < 0 || cfg.SharpMinScore > 100 {
		return fmt.Errorf("SHARP_MIN_SCORE must be between 0 and 100, got %f", cfg.SharpMinScore)
	}
	if cfg.TopK < 1 {
		return fmt.Errorf("TOP_K must be at least 1, got %d", cfg.TopK)
	}
	if cfg.Bankroll <= 0 {
		return fmt.Errorf("BANKROLL_DEFAULT must be positive, got %f", cfg.Bankroll)
	}
	if cfg.TakeProfitPct <= 0 {
		return fmt.Errorf("TAKE_PROFIT_PCT must be positive, got %f", cfg.TakeProfitPct)
	}
	if cfg.MinBet < 0 || cfg.MaxBet < cfg.MinBet {
		return fmt.Errorf("MIN_BET must be non-negative and not above MAX_BET, got %f/%f", cfg.MinBet, cfg.MaxBet)
	}
	return nil
}

// Detectors builds every detector with the configured thresholds. Thresholds
// are independent per detector.
func Detectors(cfg Config) []analysis.Detector {
	arb := analysis.DefaultArbitrageConfig()
	arb.MinProfit = cfg.ArbMinProfit

	live := analysis.LiveArbitrageConfig()
	live.MinProfit = cfg.LiveArbMinProfit

	kelly := analysis.KellyConfig()
	kelly.MinKelly = cfg.KellyMin
	kelly.KellyCap = cfg.KellyCap

	edges := analysis.EdgesConfig()
	edges.MinEdge = cfg.EdgeMin
	edges.KellyCap = cfg.KellyCap

	value := analysis.ValueConfig()
	value.MinEdge = cfg.EdgeMin
	value.KellyCap = cfg.KellyCap

	steam := analysis.DefaultSteamConfig()
	steam.VarianceThreshold = cfg.SteamVarianceThreshold

	sharp := analysis.DefaultSharpConfig()
	sharp.MinScore = cfg.SharpMinScore

	return []analysis.Detector{
		{Name: "arbitrage", Scorer: analysis.NewArbitrageScorer(arb), TopK: cfg.TopK},
		{Name: "livearb", Scorer: analysis.NewArbitrageScorer(live), TopK: cfg.TopK},
		{Name: "kelly", Scorer: analysis.NewEdgeScorer(kelly), TopK: cfg.TopK},
		{Name: "edges", Scorer: analysis.NewEdgeScorer(edges), TopK: cfg.TopK},
		{Name: "value", Scorer: analysis.NewEdgeScorer(value), TopK: min(cfg.TopK, 3)},
		{Name: "steam", Scorer: analysis.NewSteamScorer(steam), TopK: cfg.TopK},
		{Name: "sharp", Scorer: analysis.NewSharpScorer(sharp), TopK: min(cfg.TopK, 3)},
	}
}

// IsChatAllowed reports whether chatID may use the bot.
func (c Config) IsChatAllowed(chatID int64) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	for _, id := range c.AllowedChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// MaskedAPIKey shows only the last four characters of the odds API key.
func MaskedAPIKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	return envUnits(key, time.Millisecond, def)
}

func envSeconds(key string, def time.Duration) time.Duration {
	return envUnits(key, time.Second, def)
}

func envHours(key string, def time.Duration) time.Duration {
	return envUnits(key, time.Hour, def)
}

func envUnits(key string, unit, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * unit
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseChatIDs(s string) []int64 {
	var ids []int64
	for _, part := range splitList(s) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
