package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster sends operator alerts to a Slack channel.
type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// AlertLostRecord posts the body of a draft that could not be written to the
// sink, so an operator can re-enter it. The cause goes into a thread reply.
func (p *Poster) AlertLostRecord(ctx context.Context, commitID, conversation, body string, cause error) error {
	text := formatLostRecord(commitID, conversation, body)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "The draft was discarded. Copy it into the sheet by hand.",
					},
				},
			},
		},
	})
	if err != nil {
		return err
	}
	p.logger.Info("posted lost record to slack", "ts", ts, "commit_id", commitID)

	if cause != nil {
		if err := p.PostThread(ctx, ts, "Sink error: `"+cause.Error()+"`"); err != nil {
			p.logger.Warn("slack thread reply failed", "ts", ts, "error", err)
		}
	}
	return nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

// post calls chat.postMessage and returns the message timestamp.
func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatLostRecord(commitID, conversation, body string) string {
	var sb strings.Builder

	sb.WriteString("*Record not saved*\n")
	fmt.Fprintf(&sb, "*Commit:* %s\n", commitID)
	fmt.Fprintf(&sb, "*Conversation:* %s\n\n", conversation)

	if strings.TrimSpace(body) == "" {
		sb.WriteString("_Empty draft._")
		return sb.String()
	}
	// Triple backticks inside the body would close the block early.
	sb.WriteString("```\n")
	sb.WriteString(strings.ReplaceAll(body, "```", "'''"))
	sb.WriteString("\n```")
	return sb.String()
}
