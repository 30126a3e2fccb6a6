package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"odds-edge-bot/internal/alerts"
	"odds-edge-bot/internal/analysis"
	"odds-edge-bot/internal/api"
	"odds-edge-bot/internal/config"
	"odds-edge-bot/internal/engine"
	"odds-edge-bot/internal/ledger"
	"odds-edge-bot/internal/server"
	"odds-edge-bot/internal/telegram"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel))

	if err := config.Validate(cfg); err != nil {
		fatal("Invalid configuration", err)
	}
	if cfg.OddsAPIKey == "" {
		fatal("ODDS_API_KEY is required", api.ErrMissingAPIKey)
	}
	if cfg.TelegramToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewOddsClient(cfg.OddsAPIKey,
		api.WithBaseURL(cfg.OddsAPIBaseURL),
		api.WithRegions(cfg.Regions),
		api.WithRateLimiter(api.NewRateLimiter(cfg.CallDelay)),
		api.WithTimeout(cfg.APITimeout),
	)

	db, err := ledger.NewDB(cfg.DBPath, ledgerSettings(cfg))
	if err != nil {
		fatal("Opening database", err)
	}
	defer db.Close()

	detectors := config.Detectors(cfg)
	scanner := engine.NewScanner(client,
		engine.WithWorkers(cfg.ScanWorkers),
		engine.WithWindow(cfg.Lookbehind, cfg.Lookahead),
	)

	// eng is assigned below; /status only reads it once the bot is running.
	var eng *engine.Engine
	handler := telegram.NewHandler(cfg, scanner, db,
		telegram.WithQuota(client.Quota),
		telegram.WithStatus(func() engine.Status { return eng.LastStatus() }),
	)
	bot, err := telegram.NewBot(cfg.TelegramToken, handler)
	if err != nil {
		fatal("Starting Telegram bot", err)
	}

	notifyOpts := []alerts.Option{alerts.WithSender(bot, db)}
	if rdb := connectRedis(ctx, cfg.RedisURL); rdb != nil {
		defer rdb.Close()
		notifyOpts = append(notifyOpts, alerts.WithDeduper(alerts.NewRedisDeduper(rdb, cfg.AlertCooldown)))
	}
	notifier := alerts.NewNotifier(cfg.AlertCooldown, notifyOpts...)

	var alertDetectors []analysis.Detector
	for _, name := range cfg.AlertDetectors {
		if d, ok := analysis.FindDetector(detectors, name); ok {
			alertDetectors = append(alertDetectors, d)
		}
	}
	eng = engine.New(scanner, notifier, db, cfg.Sports, alertDetectors, cfg.ScanInterval)

	srv := server.New(scanner, detectors,
		server.WithStatus(eng),
		server.WithQuota(client),
		server.WithDB(db),
		server.WithCORS(cfg.CORSOrigins),
	)

	slog.Info("Starting odds edge bot",
		"api_key", config.MaskedAPIKey(cfg.OddsAPIKey),
		"sports", strings.Join(cfg.Sports, ","),
		"alerts", strings.Join(cfg.AlertDetectors, ","),
		"interval", cfg.ScanInterval,
		"db", cfg.DBPath,
		"redis", cfg.RedisURL != "",
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, net.JoinHostPort("", cfg.Port)); err != nil {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		bot.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		eng.Run(ctx)
	}()

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")
	wg.Wait()
}

func ledgerSettings(cfg config.Config) ledger.Settings {
	return ledger.Settings{
		Initial:       decimal.NewFromFloat(cfg.Bankroll),
		MaxBetPct:     cfg.MaxBetPct,
		KellyFraction: cfg.KellyFraction,
		StopLossPct:   cfg.StopLossPct,
		TakeProfitPct: cfg.TakeProfitPct,
		MinBet:        decimal.NewFromFloat(cfg.MinBet),
		MaxBet:        decimal.NewFromFloat(cfg.MaxBet),
	}
}

// connectRedis returns nil when no URL is set or the server is unreachable;
// alerts then fall back to the in-memory cooldown.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	rdb, err := alerts.ConnectRedis(ctx, url)
	if err != nil {
		slog.Warn("Redis disabled", "error", err)
		return nil
	}
	slog.Info("Redis alert dedupe enabled")
	return rdb
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
