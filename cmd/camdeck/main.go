package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/camdeck/camdeck/internal/config"
	"github.com/camdeck/camdeck/internal/jobs"
	"github.com/camdeck/camdeck/internal/journal"
	"github.com/camdeck/camdeck/internal/transport"
	"github.com/camdeck/camdeck/internal/triage"
	"github.com/camdeck/camdeck/internal/ui"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info().Str("api", cfg.APIBaseURL).Msg("starting camdeck")

	var tokens transport.TokenSource
	if cfg.APIToken != "" {
		tokens = transport.NewStaticTokenSource(cfg.APIToken)
	}
	client := transport.NewHTTPClient(cfg.APIBaseURL, tokens, logger)

	opts := triage.Options{
		Thresholds: cfg.Thresholds,
		PageSize:   cfg.PageSize,
		Logger:     logger,
	}

	if cfg.JournalDSN != "" {
		store, err := journal.Open(cfg.JournalDSN, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open mutation journal")
		}
		opts.Journal = store
	}

	coord := triage.NewCoordinator(client, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)

	if cfg.PushURL != "" {
		push := transport.NewPushSubscriber(cfg.PushURL, tokens, logger)
		push.SetEnvelopeHandler(coord.ApplyEnvelope)
		go push.Run(ctx)
		defer push.Close()
	}

	stopMonitor := make(chan struct{})
	monitor := jobs.NewSnoozeMonitor(coord, logger)
	go monitor.Start(cfg.SnoozeCheckInterval, stopMonitor)
	defer close(stopMonitor)

	if err := ui.Run(ui.NewModel(coord, cfg.MaxSelection)); err != nil {
		log.Fatal().Err(err).Msg("dashboard exited with error")
	}
}

// newLogger builds the root logger. Output goes to stderr so it does not
// fight the dashboard for the terminal.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}
