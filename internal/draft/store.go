package draft

import (
	"strings"
	"sync"

	"github.com/MikeSquared-Agency/scribe/internal/events"
)

// buffer is the ordered draft of one conversation.
type buffer struct {
	mu        sync.Mutex
	fragments []string
}

// Store holds one draft buffer per conversation. Buffers are created lazily
// and never removed, so a goroutine holding a buffer pointer can never append
// to a buffer that has been detached from the map.
type Store struct {
	buffers sync.Map // events.ConversationID -> *buffer
}

func New() *Store {
	return &Store{}
}

func (s *Store) get(id events.ConversationID) *buffer {
	if b, ok := s.buffers.Load(id); ok {
		return b.(*buffer)
	}
	b, _ := s.buffers.LoadOrStore(id, &buffer{})
	return b.(*buffer)
}

func (s *Store) peek(id events.ConversationID) (*buffer, bool) {
	b, ok := s.buffers.Load(id)
	if !ok {
		return nil, false
	}
	return b.(*buffer), true
}

// Append adds a trimmed fragment to the end of the draft for id.
func (s *Store) Append(id events.ConversationID, fragment string) error {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ErrInvalidFragment
	}

	b := s.get(id)
	b.mu.Lock()
	b.fragments = append(b.fragments, fragment)
	b.mu.Unlock()
	return nil
}

// SnapshotAndClear returns the draft for id and resets it in one step.
// An Append racing with it lands either in the snapshot or in the fresh buffer.
func (s *Store) SnapshotAndClear(id events.ConversationID) []string {
	b, ok := s.peek(id)
	if !ok {
		return nil
	}
	b.mu.Lock()
	snapshot := b.fragments
	b.fragments = nil
	b.mu.Unlock()
	return snapshot
}

// Clear discards the draft for id. Clearing an empty draft is a no-op.
func (s *Store) Clear(id events.ConversationID) {
	b, ok := s.peek(id)
	if !ok {
		return
	}
	b.mu.Lock()
	b.fragments = nil
	b.mu.Unlock()
}

func (s *Store) IsEmpty(id events.ConversationID) bool {
	return s.Len(id) == 0
}

// Len returns the number of fragments buffered for id.
func (s *Store) Len(id events.ConversationID) int {
	b, ok := s.peek(id)
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fragments)
}

// Conversations returns how many conversations currently hold a non-empty draft.
func (s *Store) Conversations() int {
	n := 0
	s.buffers.Range(func(_, v any) bool {
		b := v.(*buffer)
		b.mu.Lock()
		if len(b.fragments) > 0 {
			n++
		}
		b.mu.Unlock()
		return true
	})
	return n
}
