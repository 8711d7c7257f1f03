package processor

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/scribe/internal/events"
	"github.com/MikeSquared-Agency/scribe/internal/record"
)

// NATS subjects for intake notifications.
const (
	SubjectFragmentBuffered = "scribe.draft.appended"
	SubjectDraftCleared     = "scribe.draft.cleared"
	SubjectRecordCommitted  = "scribe.record.committed"
	SubjectRecordFailed     = "scribe.record.failed"
)

// Drafts buffers fragments per conversation until they are committed or
// cleared. *draft.Store is the implementation.
type Drafts interface {
	Append(id events.ConversationID, fragment string) error
	SnapshotAndClear(id events.ConversationID) []string
	Clear(id events.ConversationID)
	IsEmpty(id events.ConversationID) bool
	Len(id events.ConversationID) int
}

// Messenger delivers replies back into a conversation.
type Messenger interface {
	Reply(ctx context.Context, to events.Source, text string, controls bool) error
	Edit(ctx context.Context, to events.Source, text string) error
	Acknowledge(ctx context.Context, callbackID string) error
}

// Fetcher downloads a transport-hosted file.
type Fetcher interface {
	Download(ctx context.Context, fileID string, dst io.Writer) error
}

// Transcriber turns an audio file into text. It never fails: errors come back
// as displayable text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) string
}

// Recognizer turns an image file into text with the same never-fails contract.
type Recognizer interface {
	ExtractText(ctx context.Context, path string) string
}

// Sink persists one committed record.
type Sink interface {
	Append(ctx context.Context, rec record.Record) error
}

// Publisher fans intake notifications out to other services.
type Publisher interface {
	Publish(subject string, data any) error
}

// Alerter tells an operator about a draft the sink rejected.
type Alerter interface {
	AlertLostRecord(ctx context.Context, commitID, conversation, body string, cause error) error
}

// Processor routes inbound events into drafts and commits drafts to the sink.
type Processor struct {
	drafts      Drafts
	messenger   Messenger
	fetcher     Fetcher
	transcriber Transcriber
	recognizer  Recognizer
	sink        Sink
	publisher   Publisher
	alerter     Alerter
	logger      *slog.Logger

	title    string
	category string
	location *time.Location
	tempDir  string
	now      func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithPublisher enables NATS notifications.
func WithPublisher(pub Publisher) Option {
	return func(p *Processor) { p.publisher = pub }
}

// WithAlerter reports sink failures to an operator channel.
func WithAlerter(a Alerter) Option {
	return func(p *Processor) { p.alerter = a }
}

// WithRecordDefaults sets the title and category stamped on every record.
func WithRecordDefaults(title, category string) Option {
	return func(p *Processor) {
		p.title = title
		p.category = category
	}
}

// WithLocation sets the timezone record timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(p *Processor) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithTempDir sets where downloaded media is staged. Default is os.TempDir().
func WithTempDir(dir string) Option {
	return func(p *Processor) { p.tempDir = dir }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func New(
	drafts Drafts,
	messenger Messenger,
	fetcher Fetcher,
	transcriber Transcriber,
	recognizer Recognizer,
	sink Sink,
	logger *slog.Logger,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		drafts:      drafts,
		messenger:   messenger,
		fetcher:     fetcher,
		transcriber: transcriber,
		recognizer:  recognizer,
		sink:        sink,
		logger:      logger,
		title:       record.DefaultTitle,
		category:    record.DefaultCategory,
		location:    time.UTC,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one inbound event to completion.
func (p *Processor) Process(ctx context.Context, evt events.Event) {
	switch e := evt.(type) {
	case events.Text:
		p.handleText(ctx, e)
	case events.Audio:
		p.handleAudio(ctx, e)
	case events.Image:
		p.handleImage(ctx, e)
	case events.Button:
		p.handleButton(ctx, e)
	case events.Command:
		p.handleCommand(ctx, e)
	default:
		p.logger.Debug("ignoring unsupported event", "kind", events.Kind(evt))
	}
}

func (p *Processor) handleCommand(ctx context.Context, c events.Command) {
	switch c.Name {
	case "start":
		p.reply(ctx, c.Source, msgGreeting, true)
	case "ping":
		p.reply(ctx, c.Source, msgPong, false)
	default:
		p.logger.Debug("ignoring unknown command", "command", c.Name, "conversation", c.Conversation)
	}
}

// reply is best-effort: a failed delivery never undoes a draft change.
func (p *Processor) reply(ctx context.Context, to events.Source, text string, controls bool) {
	if err := p.messenger.Reply(ctx, to, text, controls); err != nil {
		p.logger.Warn("reply failed", "conversation", to.Conversation, "chat_id", to.ChatID, "error", err)
	}
}

func (p *Processor) edit(ctx context.Context, to events.Source, text string) {
	if err := p.messenger.Edit(ctx, to, text); err != nil {
		p.logger.Warn("edit failed", "conversation", to.Conversation, "chat_id", to.ChatID, "error", err)
	}
}

func (p *Processor) publish(subject string, data map[string]any) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish", "subject", subject, "error", err)
	}
}
