package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Sentinel and prefix strings returned in place of errors.
const (
	NoSpeech    = "(no speech recognized)"
	ErrorPrefix = "transcription error: "
)

// Engine performs the actual recognition and may fail.
type Engine interface {
	Recognize(ctx context.Context, path string) (string, error)
	Name() string
}

// Options selects and configures one engine per deployment.
type Options struct {
	Backend  string // "openai" or "whispercpp"
	Language string

	APIKey  string
	BaseURL string
	Model   string

	WhisperCPPBin   string
	WhisperCPPModel string
	FFmpegBin       string
}

// Transcriber wraps an Engine so that callers always get text back.
type Transcriber struct {
	engine    Engine
	converter *Converter
	logger    *slog.Logger
}

// New builds the transcriber for opts.Backend. The local whisper.cpp engine
// only reads 16 kHz mono WAV, so it gets an ffmpeg conversion step.
func New(opts Options, logger *slog.Logger) (*Transcriber, error) {
	switch opts.Backend {
	case "openai", "":
		return NewTranscriber(NewOpenAIEngine(opts.APIKey, opts.BaseURL, opts.Model, opts.Language), nil, logger), nil
	case "whispercpp":
		engine := NewWhisperCPPEngine(opts.WhisperCPPBin, opts.WhisperCPPModel, opts.Language)
		return NewTranscriber(engine, NewConverter(opts.FFmpegBin), logger), nil
	default:
		return nil, fmt.Errorf("unknown speech backend %q", opts.Backend)
	}
}

// NewTranscriber wires an engine with an optional converter.
func NewTranscriber(engine Engine, converter *Converter, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{
		engine:    engine,
		converter: converter,
		logger:    logger.With("component", "speech", "engine", engine.Name()),
	}
}

func (t *Transcriber) Backend() string { return t.engine.Name() }

// Transcribe never fails: an empty result becomes NoSpeech and any error is
// rendered after ErrorPrefix.
func (t *Transcriber) Transcribe(ctx context.Context, path string) string {
	text, err := t.transcribe(ctx, path)
	if err != nil {
		t.logger.Warn("transcription failed", "path", path, "error", err)
		return ErrorPrefix + err.Error()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return NoSpeech
	}
	return text
}

func (t *Transcriber) transcribe(ctx context.Context, path string) (string, error) {
	if t.converter != nil {
		wav := path + ".wav"
		defer os.Remove(wav)
		if err := t.converter.ToWAV(ctx, path, wav); err != nil {
			return "", err
		}
		path = wav
	}
	return t.engine.Recognize(ctx, path)
}
