// News monitor daemon: synchronizes crhoy.com day indexes, downloads and
// analyzes articles, and posts summaries to a Telegram channel.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tico-news/newsmonitor/pkg/agents"
	"github.com/tico-news/newsmonitor/pkg/api"
	"github.com/tico-news/newsmonitor/pkg/config"
	"github.com/tico-news/newsmonitor/pkg/crhoy"
	"github.com/tico-news/newsmonitor/pkg/database"
	"github.com/tico-news/newsmonitor/pkg/downloader"
	"github.com/tico-news/newsmonitor/pkg/llm"
	"github.com/tico-news/newsmonitor/pkg/notifier"
	"github.com/tico-news/newsmonitor/pkg/storage"
	"github.com/tico-news/newsmonitor/pkg/store"
	"github.com/tico-news/newsmonitor/pkg/synchronizer"
	"github.com/tico-news/newsmonitor/pkg/telegram"
	"github.com/tico-news/newsmonitor/pkg/trigger"
	"github.com/tico-news/newsmonitor/pkg/version"
)

func main() {
	envFile := flag.String("env", ".env", "Path to the .env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", *envFile, "error", err)
	}

	logger := newLogger()
	slog.SetDefault(logger)
	logger.Info("starting newsmonitor", "version", version.GitCommit)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbClient, err := database.NewClient(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	logger.Info("connected to PostgreSQL")

	st := store.New(dbClient.Pool(), logger)
	if err := st.SeedSmartCategories(ctx, agents.InitialCategories); err != nil {
		logger.Error("failed to seed smart categories", "error", err)
		os.Exit(1)
	}

	files := storage.New(cfg.DataDir, cfg.SiteZone)
	upstream := crhoy.NewClient(cfg.HTTP.RequestTimeout, cfg.HTTP.MaxRetries, cfg.UserAgent, logger)

	engine, err := llm.NewEngine(cfg.Engine, logger)
	if err != nil {
		logger.Error("failed to initialize LLM engine", "error", err)
		os.Exit(1)
	}
	pipeline := agents.New(engine, logger)

	triggers, err := trigger.NewService(cfg.Notifier.TriggerTimes, cfg.SiteZone,
		cfg.Synchronizer.CheckUpdatesInterval)
	if err != nil {
		logger.Error("invalid trigger configuration", "error", err)
		os.Exit(1)
	}

	tg, err := telegram.NewClient(cfg.Notifier.BotToken, cfg.Notifier.ChannelID, logger)
	if err != nil {
		logger.Error("failed to initialize Telegram client", "error", err)
		os.Exit(1)
	}

	sync := synchronizer.New(st, upstream, files, cfg.Synchronizer, cfg.SiteZone, logger)
	dl := downloader.New(st, upstream, files, pipeline, triggers, cfg.Downloader, logger)
	nt := notifier.New(st, files, tg, triggers, cfg.Notifier, logger)

	sync.Start(ctx)
	dl.Start(ctx)
	nt.Start(ctx)

	var statusAPI *api.Server
	if cfg.HTTPPort > 0 {
		statusAPI = api.NewServer(cfg.HTTPPort, dbClient, st, logger, sync, dl, nt)
		statusAPI.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	cancel()
	sync.Stop()
	dl.Stop()
	nt.Stop()

	if statusAPI != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := statusAPI.Stop(shutdownCtx); err != nil {
			logger.Error("status API shutdown failed", "error", err)
		}
	}
	logger.Info("stopped")
}

// newLogger builds the process logger honoring LOG_LEVEL.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
