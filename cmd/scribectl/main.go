package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/telegram"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scribectl",
		Usage: "Administer a scribe deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Telegram bot token",
				EnvVars: []string{"TELEGRAM_BOT_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Telegram Bot API base URL",
				EnvVars: []string{"TELEGRAM_API_URL"},
				Value:   telegram.DefaultAPIURL,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:  "webhook",
				Usage: "Manage the Telegram webhook registration",
				Subcommands: []*cli.Command{
					{
						Name:   "set",
						Usage:  "Point Telegram at a webhook URL",
						Action: webhookSetCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "url",
								Aliases:  []string{"u"},
								Usage:    "Public HTTPS URL of the webhook endpoint",
								Required: true,
							},
							&cli.StringFlag{
								Name:    "secret",
								Usage:   "Secret token Telegram echoes on every delivery",
								EnvVars: []string{"SCRIBE_WEBHOOK_SECRET"},
							},
						},
					},
					{
						Name:   "delete",
						Usage:  "Remove the webhook registration",
						Action: webhookDeleteCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "drop-pending",
								Usage: "Discard updates Telegram has queued",
							},
						},
					},
					{
						Name:   "info",
						Usage:  "Show the current webhook registration",
						Action: webhookInfoCommand,
					},
				},
			},
			{
				Name:  "events",
				Usage: "Inspect intake notifications",
				Subcommands: []*cli.Command{
					{
						Name:   "watch",
						Usage:  "Print notifications as they are published",
						Action: eventsWatchCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "nats-url",
								Usage:    "NATS server URL",
								EnvVars:  []string{"NATS_URL"},
								Required: true,
							},
							&cli.StringFlag{
								Name:    "nats-token",
								Usage:   "NATS auth token",
								EnvVars: []string{"NATS_TOKEN"},
							},
							&cli.StringFlag{
								Name:  "subject",
								Usage: "Subject filter",
								Value: "scribe.>",
							},
						},
					},
				},
			},
		},
	}
}

func telegramClient(c *cli.Context) (*telegram.Client, error) {
	token := c.String("token")
	if token == "" {
		return nil, fmt.Errorf("a bot token is required (--token or TELEGRAM_BOT_TOKEN)")
	}
	return telegram.NewClient(token, c.String("api-url"), slog.Default())
}

func webhookSetCommand(c *cli.Context) error {
	tg, err := telegramClient(c)
	if err != nil {
		return err
	}
	url := c.String("url")
	if !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("webhook url must be https, got %q", url)
	}
	if err := tg.SetWebhook(c.Context, url, c.String("secret")); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "webhook set to %s\n", url)
	return nil
}

func webhookDeleteCommand(c *cli.Context) error {
	tg, err := telegramClient(c)
	if err != nil {
		return err
	}
	if err := tg.DeleteWebhook(c.Context, c.Bool("drop-pending")); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "webhook deleted")
	return nil
}

func webhookInfoCommand(c *cli.Context) error {
	tg, err := telegramClient(c)
	if err != nil {
		return err
	}
	info, err := tg.GetWebhookInfo(c.Context)
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func eventsWatchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := hermes.NewClient(ctx, c.String("nats-url"), c.String("nats-token"), slog.Default())
	if err != nil {
		return err
	}
	defer client.Close()

	enc := json.NewEncoder(c.App.Writer)
	out := make(chan hermes.Envelope, 64)
	if err := client.Subscribe(c.String("subject"), forwardTo(ctx, out)); err != nil {
		return err
	}

	for {
		select {
		case env := <-out:
			if err := enc.Encode(env); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// forwardTo hands envelopes to the watch loop. Once ctx is done nothing reads
// out, so the subscription callback must not block on it.
func forwardTo(ctx context.Context, out chan<- hermes.Envelope) func(hermes.Envelope) {
	return func(env hermes.Envelope) {
		select {
		case out <- env:
		case <-ctx.Done():
		}
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
