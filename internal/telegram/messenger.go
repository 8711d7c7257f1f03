package telegram

import (
	"context"

	"github.com/go-telegram/bot/models"

	"github.com/MikeSquared-Agency/scribe/internal/events"
)

// DraftControls is the keyboard attached to every draft reply.
func DraftControls() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🆕 Create task", CallbackData: string(events.ActionCommit)}},
			{{Text: "🧹 Clear draft", CallbackData: string(events.ActionClear)}},
		},
	}
}

// Reply sends a new message into the conversation, optionally with the draft controls.
func (c *Client) Reply(ctx context.Context, to events.Source, text string, controls bool) error {
	var markup *models.InlineKeyboardMarkup
	if controls {
		markup = DraftControls()
	}
	_, err := c.SendMessage(ctx, to.ChatID, text, markup)
	return err
}

// Edit rewrites the message that carried the pressed button, removing its keyboard.
func (c *Client) Edit(ctx context.Context, to events.Source, text string) error {
	if to.MessageID == 0 {
		return c.Reply(ctx, to, text, false)
	}
	return c.EditMessageText(ctx, to.ChatID, to.MessageID, text, nil)
}

// Acknowledge answers a callback query.
func (c *Client) Acknowledge(ctx context.Context, callbackID string) error {
	return c.AnswerCallbackQuery(ctx, callbackID)
}
