package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/testutil"
)

type botCall struct {
	Path    string
	Payload map[string]string
}

func fakeBotAPI(t *testing.T, result string) (*httptest.Server, *[]botCall) {
	t.Helper()
	var calls []botCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := testutil.BotParams(r)
		assert.NoError(t, err)
		calls = append(calls, botCall{Path: r.URL.Path, Payload: payload})
		testutil.BotOK(w, result)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"scribectl"}, args...))
	return out.String(), err
}

func TestWebhookSet(t *testing.T) {
	server, calls := fakeBotAPI(t, "true")

	out, err := run(t, "--token", "123:abc", "--api-url", server.URL,
		"webhook", "set", "--url", "https://scribe.example.com/webhook", "--secret", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "https://scribe.example.com/webhook")

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/bot123:abc/setWebhook", call.Path)
	assert.Equal(t, "https://scribe.example.com/webhook", call.Payload["url"])
	assert.Equal(t, "s3cret", call.Payload["secret_token"])
}

func TestWebhookSet_RejectsPlainHTTP(t *testing.T) {
	server, calls := fakeBotAPI(t, "true")

	_, err := run(t, "--token", "123:abc", "--api-url", server.URL,
		"webhook", "set", "--url", "http://scribe.example.com/webhook")
	require.Error(t, err)
	assert.Empty(t, *calls)
}

func TestWebhookSet_URLRequired(t *testing.T) {
	_, err := run(t, "--token", "123:abc", "webhook", "set")
	assert.Error(t, err)
}

func TestWebhookDelete(t *testing.T) {
	server, calls := fakeBotAPI(t, "true")

	out, err := run(t, "--token", "123:abc", "--api-url", server.URL, "webhook", "delete", "--drop-pending")
	require.NoError(t, err)
	assert.Contains(t, out, "webhook deleted")

	require.Len(t, *calls, 1)
	assert.Equal(t, "/bot123:abc/deleteWebhook", (*calls)[0].Path)
	assert.Equal(t, "true", (*calls)[0].Payload["drop_pending_updates"])
}

func TestWebhookInfo(t *testing.T) {
	server, _ := fakeBotAPI(t, `{"url":"https://scribe.example.com/webhook","pending_update_count":3,"has_custom_certificate":false}`)

	out, err := run(t, "--token", "123:abc", "--api-url", server.URL, "webhook", "info")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "https://scribe.example.com/webhook", info["url"])
	assert.Equal(t, float64(3), info["pending_update_count"])
}

func TestMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := run(t, "webhook", "info")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "verbose", "--token", "x", "webhook", "info")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestForwardTo_DeliversWhileWatching(t *testing.T) {
	out := make(chan hermes.Envelope, 1)
	forwardTo(context.Background(), out)(hermes.Envelope{ID: "e1"})

	select {
	case env := <-out:
		assert.Equal(t, "e1", env.ID)
	default:
		t.Fatal("expected envelope to be forwarded")
	}
}

func TestForwardTo_DoesNotBlockAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan hermes.Envelope, 1)
	forward := forwardTo(ctx, out)
	forward(hermes.Envelope{ID: "fills-buffer"})
	cancel()

	done := make(chan struct{})
	go func() {
		forward(hermes.Envelope{ID: "late"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback blocked on a full buffer after the watch stopped")
	}
}
