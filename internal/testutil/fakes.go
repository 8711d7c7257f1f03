package testutil

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/MikeSquared-Agency/scribe/internal/events"
	"github.com/MikeSquared-Agency/scribe/internal/record"
)

// SentReply is one message captured by Messenger.
type SentReply struct {
	To       events.Source
	Text     string
	Controls bool
	Edited   bool
}

// Messenger records replies, edits and callback acknowledgements.
type Messenger struct {
	mu    sync.Mutex
	Sent  []SentReply
	Acked []string
	Err   error
}

func (m *Messenger) Reply(_ context.Context, to events.Source, text string, controls bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentReply{To: to, Text: text, Controls: controls})
	return m.Err
}

func (m *Messenger) Edit(_ context.Context, to events.Source, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentReply{To: to, Text: text, Edited: true})
	return m.Err
}

func (m *Messenger) Acknowledge(_ context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acked = append(m.Acked, callbackID)
	return m.Err
}

// Last returns the most recent reply, or a zero value when none was sent.
func (m *Messenger) Last() SentReply {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentReply{}
	}
	return m.Sent[len(m.Sent)-1]
}

func (m *Messenger) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Fetcher writes Content for every download, or fails with Err.
type Fetcher struct {
	Content []byte
	Err     error

	mu      sync.Mutex
	FileIDs []string
}

func (f *Fetcher) Download(_ context.Context, fileID string, dst io.Writer) error {
	f.mu.Lock()
	f.FileIDs = append(f.FileIDs, fileID)
	f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	_, err := dst.Write(f.Content)
	return err
}

// MediaReader is a fake Transcriber and Recognizer. It records the paths it was
// given and what was on disk at call time.
type MediaReader struct {
	Text string

	mu       sync.Mutex
	Paths    []string
	Contents [][]byte
	// Hook runs inside the adapter call, before it returns.
	Hook func(path string)
}

func (r *MediaReader) read(path string) string {
	data, _ := os.ReadFile(path)
	r.mu.Lock()
	r.Paths = append(r.Paths, path)
	r.Contents = append(r.Contents, data)
	hook := r.Hook
	r.mu.Unlock()
	if hook != nil {
		hook(path)
	}
	return r.Text
}

func (r *MediaReader) Transcribe(_ context.Context, path string) string  { return r.read(path) }
func (r *MediaReader) ExtractText(_ context.Context, path string) string { return r.read(path) }

func (r *MediaReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Paths)
}

// Sink records appended records and fails with Err when set.
type Sink struct {
	mu      sync.Mutex
	Records []record.Record
	Err     error
	// Hook runs inside Append, before it returns.
	Hook func(rec record.Record)
}

func (s *Sink) Append(_ context.Context, rec record.Record) error {
	s.mu.Lock()
	s.Records = append(s.Records, rec)
	hook := s.Hook
	err := s.Err
	s.mu.Unlock()
	if hook != nil {
		hook(rec)
	}
	return err
}

func (s *Sink) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Records)
}

// Published is one message captured by Publisher.
type Published struct {
	Subject string
	Data    any
}

// Publisher records publishes.
type Publisher struct {
	mu       sync.Mutex
	Messages []Published
	Err      error
}

func (p *Publisher) Publish(subject string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Messages = append(p.Messages, Published{Subject: subject, Data: data})
	return p.Err
}

// Subjects lists published subjects in order.
func (p *Publisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Messages))
	for i, m := range p.Messages {
		out[i] = m.Subject
	}
	return out
}

// Alert is one lost-record report captured by Alerter.
type Alert struct {
	CommitID     string
	Conversation string
	Body         string
	Cause        error
}

// Alerter records lost-record alerts.
type Alerter struct {
	mu     sync.Mutex
	Alerts []Alert
	Err    error
}

func (a *Alerter) AlertLostRecord(_ context.Context, commitID, conversation, body string, cause error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Alerts = append(a.Alerts, Alert{CommitID: commitID, Conversation: conversation, Body: body, Cause: cause})
	return a.Err
}
