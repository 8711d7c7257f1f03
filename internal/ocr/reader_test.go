package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/scribe/internal/anthropic"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEngine struct {
	text      string
	err       error
	mediaType string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, mediaType string) (string, error) {
	f.mediaType = mediaType
	return f.text, f.err
}

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
		want string
	}{
		{"recognized", "  Молоко\nХліб  ", nil, "Молоко\nХліб"},
		{"empty", "", nil, NoText},
		{"no text marker", " NO_TEXT\n", nil, NoText},
		{"engine error", "", errors.New("rate limited"), ErrorPrefix + "rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{text: tt.text, err: tt.err}
			r := NewReader(engine, discardLogger())
			assert.Equal(t, tt.want, r.ExtractText(context.Background(), writeImage(t, pngHeader)))
			assert.Equal(t, "image/png", engine.mediaType)
		})
	}
}

func TestExtractText_JPEG(t *testing.T) {
	engine := &fakeEngine{text: "x"}
	r := NewReader(engine, discardLogger())

	r.ExtractText(context.Background(), writeImage(t, []byte("\xff\xd8\xff\xe0\x00\x10JFIF")))
	assert.Equal(t, "image/jpeg", engine.mediaType)
}

func TestExtractText_FileProblems(t *testing.T) {
	engine := &fakeEngine{text: "never"}
	r := NewReader(engine, discardLogger())

	got := r.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.True(t, strings.HasPrefix(got, ErrorPrefix), got)

	got = r.ExtractText(context.Background(), writeImage(t, nil))
	assert.True(t, strings.HasPrefix(got, ErrorPrefix), got)

	got = r.ExtractText(context.Background(), writeImage(t, []byte("plain text, not an image")))
	assert.True(t, strings.HasPrefix(got, ErrorPrefix), got)
	assert.Empty(t, engine.mediaType, "engine must not run for non-images")
}

func TestNew(t *testing.T) {
	r, err := New(Options{Backend: "openai", OpenAIAPIKey: "k"}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "openai", r.Backend())

	r, err = New(Options{Backend: "anthropic", AnthropicAPIKey: "k", AnthropicModel: "m"}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", r.Backend())

	_, err = New(Options{Backend: "tesseract"}, discardLogger())
	assert.Error(t, err)
}

func TestOpenAIEngine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])
		msgs := req["messages"].([]any)
		parts := msgs[0].(map[string]any)["content"].([]any)
		require.Len(t, parts, 2)
		img := parts[1].(map[string]any)["image_url"].(map[string]any)
		assert.True(t, strings.HasPrefix(img["url"].(string), "data:image/png;base64,"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": "Купити хліб"}, "finish_reason": "stop"}},
		})
	}))
	defer server.Close()

	r := NewReader(NewOpenAIEngine("sk-test", server.URL+"/v1", ""), discardLogger())
	assert.Equal(t, "Купити хліб", r.ExtractText(context.Background(), writeImage(t, pngHeader)))
}

func TestAnthropicEngine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []any{map[string]any{"type": "text", "text": "NO_TEXT"}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	client := anthropic.NewClient("k", "claude-test")
	client.SetAPIURL(server.URL)

	r := NewReader(NewAnthropicEngine(client), discardLogger())
	assert.Equal(t, NoText, r.ExtractText(context.Background(), writeImage(t, pngHeader)))
}

func TestAnthropicEngine_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer server.Close()

	client := anthropic.NewClient("k", "claude-test")
	client.SetAPIURL(server.URL)

	got := NewReader(NewAnthropicEngine(client), discardLogger()).ExtractText(context.Background(), writeImage(t, pngHeader))
	assert.True(t, strings.HasPrefix(got, ErrorPrefix), got)
	assert.Contains(t, got, "slow down")
}
