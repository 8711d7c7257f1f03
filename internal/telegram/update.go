package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/MikeSquared-Agency/scribe/internal/events"
)

// ParseUpdate decodes a webhook body.
func ParseUpdate(data []byte) (*models.Update, error) {
	var u models.Update
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse update: %w", err)
	}
	return &u, nil
}

func conversationOf(u *models.User, chatID int64) events.ConversationID {
	if u != nil && u.ID != 0 {
		return events.ConversationID(strconv.FormatInt(u.ID, 10))
	}
	return events.ConversationID(strconv.FormatInt(chatID, 10))
}

// EventOf maps the update onto the closed event set. ok is false for updates
// scribe does not handle (edited messages, stickers, channel posts...).
func EventOf(u *models.Update) (evt events.Event, ok bool) {
	if cq := u.CallbackQuery; cq != nil {
		return buttonEvent(cq), true
	}

	m := u.Message
	if m == nil {
		return nil, false
	}
	src := events.Source{
		Conversation: conversationOf(m.From, m.Chat.ID),
		ChatID:       m.Chat.ID,
		MessageID:    m.ID,
	}

	switch {
	case m.Voice != nil:
		return events.Audio{
			Source:   src,
			FileID:   m.Voice.FileID,
			FileName: "voice.ogg",
			MimeType: m.Voice.MimeType,
			Duration: m.Voice.Duration,
		}, true
	case m.Audio != nil:
		return events.Audio{
			Source:   src,
			FileID:   m.Audio.FileID,
			FileName: m.Audio.FileName,
			MimeType: m.Audio.MimeType,
			Duration: m.Audio.Duration,
		}, true
	case len(m.Photo) > 0:
		// Telegram lists sizes smallest first.
		p := m.Photo[len(m.Photo)-1]
		return events.Image{Source: src, FileID: p.FileID, Width: p.Width, Height: p.Height}, true
	case isCommand(m):
		name, args := splitCommand(m.Text)
		return events.Command{Source: src, Name: name, Args: args}, true
	case m.Text != "":
		return events.Text{Source: src, Body: m.Text}, true
	}
	return nil, false
}

// buttonEvent locates the message carrying the keyboard. Telegram reports
// messages older than 48 hours as inaccessible, with only chat and id.
func buttonEvent(cq *models.CallbackQuery) events.Button {
	src := events.Source{Conversation: conversationOf(&cq.From, 0), ChatID: cq.From.ID}
	switch {
	case cq.Message.Message != nil:
		src.ChatID = cq.Message.Message.Chat.ID
		src.MessageID = cq.Message.Message.ID
	case cq.Message.InaccessibleMessage != nil:
		src.ChatID = cq.Message.InaccessibleMessage.Chat.ID
		src.MessageID = cq.Message.InaccessibleMessage.MessageID
	}
	return events.Button{Source: src, CallbackID: cq.ID, Action: events.Action(cq.Data)}
}

func isCommand(m *models.Message) bool {
	for _, e := range m.Entities {
		if e.Type == models.MessageEntityTypeBotCommand && e.Offset == 0 {
			return true
		}
	}
	return strings.HasPrefix(m.Text, "/")
}

// splitCommand turns "/start@scribe_bot foo" into ("start", "foo").
func splitCommand(text string) (name, args string) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	name, args, _ = strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}
