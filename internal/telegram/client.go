package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const DefaultAPIURL = "https://api.telegram.org"

const requestTimeout = 60 * time.Second

// Client talks to the Telegram Bot API.
type Client struct {
	bot    *bot.Bot
	token  string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(token, apiURL string, logger *slog.Logger) (*Client, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := &http.Client{Timeout: requestTimeout}

	b, err := bot.New(token,
		bot.WithServerURL(strings.TrimRight(apiURL, "/")),
		bot.WithHTTPClient(requestTimeout, httpClient),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", scrubToken(err, token))
	}
	return &Client{
		bot:    b,
		token:  token,
		http:   httpClient,
		logger: logger,
	}, nil
}

// wrap names the failed method and keeps the bot token out of the error text.
// Transport errors quote the request URL, and the token is part of its path.
func (c *Client) wrap(method string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bot.ErrorUnauthorized) {
		return ErrUnauthorized
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = fmt.Errorf("%s: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return scrubToken(fmt.Errorf("telegram %s: %w", method, err), c.token)
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }
func (e *scrubbedError) Unwrap() error { return e.err }

func scrubToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &scrubbedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}

// SendMessage posts a new message to chatID and returns its message id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *models.InlineKeyboardMarkup) (int, error) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	msg, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, c.wrap("sendMessage", err)
	}
	c.logger.Debug("telegram message sent", "chat_id", chatID, "message_id", msg.ID)
	return msg.ID, nil
}

// EditMessageText replaces the text of an existing message, dropping its keyboard
// unless markup is given.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, markup *models.InlineKeyboardMarkup) error {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := c.bot.EditMessageText(ctx, params)
	return c.wrap("editMessageText", err)
}

// AnswerCallbackQuery stops the client-side spinner on a pressed button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	_, err := c.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
	})
	return c.wrap("answerCallbackQuery", err)
}

// GetFile resolves a file id to a downloadable path.
func (c *Client) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	f, err := c.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, c.wrap("getFile", err)
	}
	if f.FilePath == "" {
		return nil, fmt.Errorf("%w: %s", ErrFileUnavailable, fileID)
	}
	return f, nil
}

// Download streams the content of fileID into dst.
func (c *Client) Download(ctx context.Context, fileID string, dst io.Writer) error {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bot.FileDownloadLink(f), nil)
	if err != nil {
		return c.wrap("download", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.wrap("download "+f.FilePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("download %s: status %d", f.FilePath, resp.StatusCode)
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", f.FilePath, err)
	}
	c.logger.Debug("telegram file downloaded", "file_path", f.FilePath, "bytes", n)
	return nil
}

// SetWebhook registers url as the update endpoint. secret, when set, is echoed
// back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	_, err := c.bot.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:            url,
		AllowedUpdates: []string{"message", "callback_query"},
		SecretToken:    secret,
	})
	return c.wrap("setWebhook", err)
}

func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	_, err := c.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{
		DropPendingUpdates: dropPending,
	})
	return c.wrap("deleteWebhook", err)
}

func (c *Client) GetWebhookInfo(ctx context.Context) (*models.WebhookInfo, error) {
	info, err := c.bot.GetWebhookInfo(ctx)
	if err != nil {
		return nil, c.wrap("getWebhookInfo", err)
	}
	return info, nil
}
