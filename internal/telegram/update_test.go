package telegram

import (
	"testing"

	"github.com/MikeSquared-Agency/scribe/internal/events"
)

func TestUpdateEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want events.Event
	}{
		{
			name: "text",
			raw:  `{"update_id":1,"message":{"message_id":10,"from":{"id":7},"chat":{"id":99,"type":"private"},"text":"buy milk"}}`,
			want: events.Text{
				Source: events.Source{Conversation: "7", ChatID: 99, MessageID: 10},
				Body:   "buy milk",
			},
		},
		{
			name: "voice",
			raw:  `{"update_id":2,"message":{"message_id":11,"from":{"id":7},"chat":{"id":99},"voice":{"file_id":"V1","duration":4,"mime_type":"audio/ogg"}}}`,
			want: events.Audio{
				Source:   events.Source{Conversation: "7", ChatID: 99, MessageID: 11},
				FileID:   "V1",
				FileName: "voice.ogg",
				MimeType: "audio/ogg",
				Duration: 4,
			},
		},
		{
			name: "audio file",
			raw:  `{"update_id":3,"message":{"message_id":12,"from":{"id":7},"chat":{"id":99},"audio":{"file_id":"A1","duration":60,"file_name":"memo.m4a","mime_type":"audio/mp4"}}}`,
			want: events.Audio{
				Source:   events.Source{Conversation: "7", ChatID: 99, MessageID: 12},
				FileID:   "A1",
				FileName: "memo.m4a",
				MimeType: "audio/mp4",
				Duration: 60,
			},
		},
		{
			name: "photo picks largest",
			raw:  `{"update_id":4,"message":{"message_id":13,"from":{"id":7},"chat":{"id":99},"photo":[{"file_id":"small","width":90,"height":90},{"file_id":"big","width":1280,"height":960}]}}`,
			want: events.Image{
				Source: events.Source{Conversation: "7", ChatID: 99, MessageID: 13},
				FileID: "big",
				Width:  1280,
				Height: 960,
			},
		},
		{
			name: "command with bot suffix",
			raw:  `{"update_id":5,"message":{"message_id":14,"from":{"id":7},"chat":{"id":99},"text":"/Start@scribe_bot hi","entities":[{"type":"bot_command","offset":0,"length":17}]}}`,
			want: events.Command{
				Source: events.Source{Conversation: "7", ChatID: 99, MessageID: 14},
				Name:   "start",
				Args:   "hi",
			},
		},
		{
			name: "button",
			raw:  `{"update_id":6,"callback_query":{"id":"cb1","from":{"id":7},"data":"commit_draft","message":{"message_id":15,"chat":{"id":99}}}}`,
			want: events.Button{
				Source:     events.Source{Conversation: "7", ChatID: 99, MessageID: 15},
				CallbackID: "cb1",
				Action:     events.ActionCommit,
			},
		},
		{
			name: "button on accessible message",
			raw:  `{"update_id":8,"callback_query":{"id":"cb2","from":{"id":7},"data":"clear_draft","message":{"message_id":17,"date":1700000000,"chat":{"id":99},"text":"Added"}}}`,
			want: events.Button{
				Source:     events.Source{Conversation: "7", ChatID: 99, MessageID: 17},
				CallbackID: "cb2",
				Action:     events.ActionClear,
			},
		},
		{
			name: "button without message replies to sender",
			raw:  `{"update_id":9,"callback_query":{"id":"cb3","from":{"id":7},"data":"commit_draft"}}`,
			want: events.Button{
				Source:     events.Source{Conversation: "7", ChatID: 7},
				CallbackID: "cb3",
				Action:     events.ActionCommit,
			},
		},
		{
			name: "message without sender falls back to chat",
			raw:  `{"update_id":7,"message":{"message_id":16,"chat":{"id":-100},"text":"note"}}`,
			want: events.Text{
				Source: events.Source{Conversation: "-100", ChatID: -100, MessageID: 16},
				Body:   "note",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseUpdate([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got, ok := EventOf(u)
			if !ok {
				t.Fatal("expected event")
			}
			if got != tt.want {
				t.Errorf("EventOf() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestUpdateEvent_Unhandled(t *testing.T) {
	for _, raw := range []string{
		`{"update_id":1}`,
		`{"update_id":2,"message":{"message_id":1,"chat":{"id":1},"sticker":{"file_id":"S"}}}`,
		`{"update_id":3,"edited_message":{"message_id":1,"chat":{"id":1},"text":"x"}}`,
	} {
		u, err := ParseUpdate([]byte(raw))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if evt, ok := EventOf(u); ok {
			t.Errorf("expected no event for %s, got %#v", raw, evt)
		}
	}
}

func TestParseUpdate_InvalidJSON(t *testing.T) {
	if _, err := ParseUpdate([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in, name, args string
	}{
		{"/start", "start", ""},
		{"/ping@scribe_bot", "ping", ""},
		{"/start  some args ", "start", "some args"},
	}
	for _, tt := range tests {
		name, args := splitCommand(tt.in)
		if name != tt.name || args != tt.args {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", tt.in, name, args, tt.name, tt.args)
		}
	}
}
