package events

// ConversationID identifies one user. All draft state is partitioned by it.
type ConversationID string

// Action is the payload carried by an inline button.
type Action string

const (
	ActionCommit Action = "commit_draft"
	ActionClear  Action = "clear_draft"
)

// Source locates the conversation an event came from and where replies go.
type Source struct {
	Conversation ConversationID
	ChatID       int64
	MessageID    int
}

// Event is one inbound transport event. The set of implementations is closed:
// Text, Audio, Image, Button and Command.
type Event interface {
	Origin() Source
	isEvent()
}

// Text is a plain text message.
type Text struct {
	Source
	Body string
}

// Audio is a voice note or audio file that must be downloaded and transcribed.
type Audio struct {
	Source
	FileID   string
	FileName string
	MimeType string
	Duration int
}

// Image is a photo that must be downloaded and run through OCR.
type Image struct {
	Source
	FileID string
	Width  int
	Height int
}

// Button is a press on one of the draft controls.
type Button struct {
	Source
	CallbackID string
	Action     Action
}

// Command is a slash command such as /start. Commands are never buffered.
type Command struct {
	Source
	Name string
	Args string
}

func (s Source) Origin() Source { return s }

func (Text) isEvent()    {}
func (Audio) isEvent()   {}
func (Image) isEvent()   {}
func (Button) isEvent()  {}
func (Command) isEvent() {}

// Kind returns a short label for logging.
func Kind(e Event) string {
	switch e.(type) {
	case Text:
		return "text"
	case Audio:
		return "audio"
	case Image:
		return "image"
	case Button:
		return "button"
	case Command:
		return "command"
	default:
		return "unknown"
	}
}
