package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/MikeSquared-Agency/scribe/internal/api"
	"github.com/MikeSquared-Agency/scribe/internal/config"
	"github.com/MikeSquared-Agency/scribe/internal/dedup"
	"github.com/MikeSquared-Agency/scribe/internal/draft"
	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/ocr"
	"github.com/MikeSquared-Agency/scribe/internal/processor"
	"github.com/MikeSquared-Agency/scribe/internal/sheets"
	"github.com/MikeSquared-Agency/scribe/internal/slack"
	"github.com/MikeSquared-Agency/scribe/internal/speech"
	"github.com/MikeSquared-Agency/scribe/internal/store"
	"github.com/MikeSquared-Agency/scribe/internal/telegram"
)

type recordSink interface {
	processor.Sink
	Name() string
}

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("scribe starting", "port", cfg.Port, "sink", cfg.Sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telegram transport
	tg, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPIURL, slog.Default())
	if err != nil {
		slog.Error("failed to set up telegram client", "error", err)
		os.Exit(1)
	}

	// Adapters
	transcriber, err := speech.New(speech.Options{
		Backend:         cfg.SpeechBackend,
		Language:        cfg.SpeechLanguage,
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		Model:           cfg.WhisperModel,
		WhisperCPPBin:   cfg.WhisperCPPBin,
		WhisperCPPModel: cfg.WhisperCPPModel,
		FFmpegBin:       cfg.FFmpegBin,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to set up transcription", "error", err)
		os.Exit(1)
	}
	reader, err := ocr.New(ocr.Options{
		Backend:         cfg.OCRBackend,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		VisionModel:     cfg.VisionModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to set up text recognition", "error", err)
		os.Exit(1)
	}
	slog.Info("adapters ready", "speech", transcriber.Backend(), "ocr", reader.Backend())

	// Record sink
	var (
		sink    recordSink
		records api.RecordCounter
	)
	switch cfg.Sink {
	case "postgres":
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		sink, records = db, db
		slog.Info("database connected")
	default:
		sh, err := sheets.NewFromCredentials(ctx, cfg.ServiceAccountFile, cfg.SpreadsheetID, cfg.SheetRange, loc, slog.Default())
		if err != nil {
			slog.Error("failed to set up spreadsheet", "error", err)
			os.Exit(1)
		}
		sink = sh
		slog.Info("spreadsheet ready", "range", cfg.SheetRange)
	}

	opts := []processor.Option{
		processor.WithRecordDefaults(cfg.RecordTitle, cfg.RecordCategory),
		processor.WithLocation(loc),
		processor.WithTempDir(cfg.TempDir),
	}

	// NATS/Hermes (optional, scribe works without notifications)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		opts = append(opts, processor.WithPublisher(hermesClient))
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without notifications")
	}

	// Slack alerts for records the sink rejected (optional)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		opts = append(opts, processor.WithAlerter(slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())))
		slog.Info("slack alerts ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, lost records are only logged")
	}

	// Webhook redelivery filter
	filter, err := dedup.Open(cfg.DedupPath, cfg.DedupTTL, slog.Default())
	if err != nil {
		slog.Error("failed to open dedup store", "error", err)
		os.Exit(1)
	}
	defer filter.Close()

	// Processor
	drafts := draft.New()
	proc := processor.New(drafts, tg, tg, transcriber, reader, sink, slog.Default(), opts...)

	// HTTP API
	srv, err := api.NewServer(api.Options{
		Port:          cfg.Port,
		WebhookPath:   cfg.WebhookPath,
		WebhookSecret: cfg.WebhookSecret,
		Workers:       cfg.Workers,
		Status: map[string]string{
			"sink":   sink.Name(),
			"speech": transcriber.Backend(),
			"ocr":    reader.Backend(),
		},
		Drafts:  drafts,
		Records: records,
	}, proc, filter, slog.Default())
	if err != nil {
		slog.Error("failed to create API server", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Webhook registration
	if url := cfg.WebhookURL(); url != "" {
		if err := tg.SetWebhook(ctx, url, cfg.WebhookSecret); err != nil {
			slog.Error("failed to register webhook", "url", url, "error", err)
			os.Exit(1)
		}
		slog.Info("webhook registered", "url", url)
	} else {
		slog.Warn("SCRIBE_EXTERNAL_URL not set, webhook must be registered manually")
	}

	// Announce registration
	if hermesClient != nil {
		if err := hermesClient.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"sink":      sink.Name(),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("scribe ready", "port", cfg.Port, "webhook_path", "/"+cfg.WebhookPath)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
	cancel()
	slog.Info("scribe stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
