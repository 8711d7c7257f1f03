package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingBotToken is fatal at startup: nothing works without the transport credential.
var ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is required")

type Config struct {
	Port           int
	ExternalURL    string
	WebhookPath    string
	WebhookSecret  string
	LogLevel       string
	Workers        int
	TempDir        string
	Timezone       string
	RecordTitle    string
	RecordCategory string

	TelegramToken  string
	TelegramAPIURL string

	SpeechBackend   string
	SpeechLanguage  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	WhisperModel    string
	WhisperCPPBin   string
	WhisperCPPModel string
	FFmpegBin       string

	OCRBackend      string
	VisionModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	Sink               string
	ServiceAccountFile string
	SpreadsheetID      string
	SheetRange         string
	DatabaseURL        string

	NatsURL   string
	NatsToken string

	SlackBotToken string
	SlackChannel  string

	DedupPath string
	DedupTTL  time.Duration
}

func Load() Config {
	return Config{
		Port:           envInt("SCRIBE_PORT", envInt("PORT", 8080)),
		ExternalURL:    strings.TrimRight(envStr("SCRIBE_EXTERNAL_URL", ""), "/"),
		WebhookPath:    strings.Trim(envStr("SCRIBE_WEBHOOK_PATH", "webhook"), "/"),
		WebhookSecret:  envStr("SCRIBE_WEBHOOK_SECRET", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		Workers:        envInt("SCRIBE_WORKERS", 8),
		TempDir:        envStr("SCRIBE_TEMP_DIR", ""),
		Timezone:       envStr("SCRIBE_TIMEZONE", "UTC"),
		RecordTitle:    envStr("SCRIBE_RECORD_TITLE", "Task"),
		RecordCategory: envStr("SCRIBE_RECORD_CATEGORY", "#other"),

		TelegramToken:  envStr("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL: envStr("TELEGRAM_API_URL", "https://api.telegram.org"),

		SpeechBackend:   envStr("SCRIBE_SPEECH_BACKEND", "openai"),
		SpeechLanguage:  envStr("SCRIBE_SPEECH_LANGUAGE", "uk"),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", ""),
		WhisperModel:    envStr("SCRIBE_WHISPER_MODEL", "whisper-1"),
		WhisperCPPBin:   envStr("WHISPERCPP_BIN", "whisper-cli"),
		WhisperCPPModel: envStr("WHISPERCPP_MODEL", ""),
		FFmpegBin:       envStr("FFMPEG_BIN", "ffmpeg"),

		OCRBackend:      envStr("SCRIBE_OCR_BACKEND", "openai"),
		VisionModel:     envStr("SCRIBE_VISION_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("SCRIBE_ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		Sink:               envStr("SCRIBE_SINK", "sheets"),
		ServiceAccountFile: envStr("GOOGLE_SERVICE_ACCOUNT_FILE", "service_account.json"),
		SpreadsheetID:      envStr("SPREADSHEET_ID", ""),
		SheetRange:         envStr("SCRIBE_SHEET_RANGE", "A:L"),
		DatabaseURL:        envStr("DATABASE_URL", ""),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),

		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_CHANNEL", ""),

		DedupPath: envStr("SCRIBE_DEDUP_PATH", ""),
		DedupTTL:  envDuration("SCRIBE_DEDUP_TTL", 24*time.Hour),
	}
}

// WebhookURL is the public URL Telegram should post updates to, or "" when
// no external URL is configured.
func (c Config) WebhookURL() string {
	if c.ExternalURL == "" {
		return ""
	}
	return c.ExternalURL + "/" + c.WebhookPath
}

// Location resolves Timezone for record timestamps.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate reports configuration that makes startup impossible.
func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrMissingBotToken
	}
	switch c.SpeechBackend {
	case "openai":
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			return errors.New("OPENAI_API_KEY or OPENAI_BASE_URL is required for the openai speech backend")
		}
	case "whispercpp":
		if c.WhisperCPPModel == "" {
			return errors.New("WHISPERCPP_MODEL is required for the whispercpp speech backend")
		}
	default:
		return fmt.Errorf("unknown speech backend %q", c.SpeechBackend)
	}
	switch c.OCRBackend {
	case "openai":
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			return errors.New("OPENAI_API_KEY or OPENAI_BASE_URL is required for the openai ocr backend")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic ocr backend")
		}
	default:
		return fmt.Errorf("unknown ocr backend %q", c.OCRBackend)
	}
	switch c.Sink {
	case "sheets":
		if c.SpreadsheetID == "" {
			return errors.New("SPREADSHEET_ID is required for the sheets sink")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres sink")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
