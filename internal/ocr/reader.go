package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/MikeSquared-Agency/scribe/internal/anthropic"
)

// Sentinel and prefix strings returned in place of errors.
const (
	NoText      = "(no text recognized)"
	ErrorPrefix = "ocr error: "
)

// noTextMarker is what the vision prompt asks models to answer for images
// without text.
const noTextMarker = "NO_TEXT"

const prompt = "Transcribe all text visible in this image exactly as written, in its original language. " +
	"Keep line breaks. Do not describe the image or add commentary. " +
	"If the image contains no text, answer with exactly " + noTextMarker + "."

// Engine recognizes text in an encoded image.
type Engine interface {
	Recognize(ctx context.Context, image []byte, mediaType string) (string, error)
	Name() string
}

// Options selects and configures one engine per deployment.
type Options struct {
	Backend string // "openai" or "anthropic"

	OpenAIAPIKey  string
	OpenAIBaseURL string
	VisionModel   string

	AnthropicAPIKey string
	AnthropicModel  string
}

// Reader wraps an Engine so that callers always get text back.
type Reader struct {
	engine Engine
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) (*Reader, error) {
	switch opts.Backend {
	case "openai", "":
		return NewReader(NewOpenAIEngine(opts.OpenAIAPIKey, opts.OpenAIBaseURL, opts.VisionModel), logger), nil
	case "anthropic":
		client := anthropic.NewClient(opts.AnthropicAPIKey, opts.AnthropicModel)
		return NewReader(NewAnthropicEngine(client), logger), nil
	default:
		return nil, fmt.Errorf("unknown ocr backend %q", opts.Backend)
	}
}

func NewReader(engine Engine, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		engine: engine,
		logger: logger.With("component", "ocr", "engine", engine.Name()),
	}
}

func (r *Reader) Backend() string { return r.engine.Name() }

// ExtractText never fails: images without text give NoText and any error is
// rendered after ErrorPrefix.
func (r *Reader) ExtractText(ctx context.Context, path string) string {
	text, err := r.extract(ctx, path)
	if err != nil {
		r.logger.Warn("ocr failed", "path", path, "error", err)
		return ErrorPrefix + err.Error()
	}
	text = strings.TrimSpace(text)
	if text == "" || text == noTextMarker {
		return NoText
	}
	return text
}

func (r *Reader) extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("read image: %s is empty", path)
	}
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("unsupported image type %s", mediaType)
	}
	return r.engine.Recognize(ctx, data, mediaType)
}
