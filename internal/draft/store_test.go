package draft

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/scribe/internal/events"
)

func TestAppend_SnapshotPreservesOrder(t *testing.T) {
	s := New()
	id := events.ConversationID("U1")

	require.NoError(t, s.Append(id, "buy milk"))
	require.NoError(t, s.Append(id, "  call Alex  "))
	require.NoError(t, s.Append(id, "third"))

	got := s.SnapshotAndClear(id)
	assert.Equal(t, []string{"buy milk", "call Alex", "third"}, got)
	assert.True(t, s.IsEmpty(id))
	assert.Empty(t, s.SnapshotAndClear(id))
}

func TestAppend_RejectsBlankFragments(t *testing.T) {
	s := New()
	id := events.ConversationID("U1")
	require.NoError(t, s.Append(id, "keep"))

	for _, frag := range []string{"", " ", "\n\t ", "\u00a0"} {
		err := s.Append(id, frag)
		assert.ErrorIs(t, err, ErrInvalidFragment, "fragment %q", frag)
	}

	assert.Equal(t, 1, s.Len(id))
	assert.Equal(t, []string{"keep"}, s.SnapshotAndClear(id))
}

func TestAppend_BlankOnUnknownIdentityStaysEmpty(t *testing.T) {
	s := New()
	id := events.ConversationID("nobody")

	assert.ErrorIs(t, s.Append(id, "   "), ErrInvalidFragment)
	assert.True(t, s.IsEmpty(id))
	assert.Equal(t, 0, s.Conversations())
}

func TestClear(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
	}{
		{"empty draft", nil},
		{"one fragment", []string{"a"}},
		{"many fragments", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			id := events.ConversationID("U5")
			for _, f := range tt.fragments {
				require.NoError(t, s.Append(id, f))
			}

			s.Clear(id)
			assert.True(t, s.IsEmpty(id))

			s.Clear(id)
			assert.True(t, s.IsEmpty(id))
		})
	}
}

func TestIsEmpty_DoesNotCreateBuffer(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty("ghost"))

	_, ok := s.buffers.Load(events.ConversationID("ghost"))
	assert.False(t, ok)
}

func TestIdentitiesAreIsolated(t *testing.T) {
	s := New()
	a := events.ConversationID("A")
	b := events.ConversationID("B")

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(a, fmt.Sprintf("a-%d", i))
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = s.Append(b, fmt.Sprintf("b-%d", i))
		}(i)
	}
	wg.Wait()

	gotA := s.SnapshotAndClear(a)
	gotB := s.SnapshotAndClear(b)
	require.Len(t, gotA, 200)
	require.Len(t, gotB, 200)
	for _, f := range gotA {
		assert.Regexp(t, `^a-\d+$`, f)
	}
	for _, f := range gotB {
		assert.Regexp(t, `^b-\d+$`, f)
	}
}

func TestSnapshotAndClear_ConcurrentAppendsNeitherLostNorDuplicated(t *testing.T) {
	s := New()
	id := events.ConversationID("U3")
	const n = 1000

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected []string
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = s.Append(id, fmt.Sprintf("f-%d", i))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			snap := s.SnapshotAndClear(id)
			mu.Lock()
			collected = append(collected, snap...)
			mu.Unlock()
		}
	}()

	wg.Wait()
	<-done
	collected = append(collected, s.SnapshotAndClear(id)...)

	require.Len(t, collected, n)
	seen := make(map[string]bool, n)
	for i, f := range collected {
		assert.False(t, seen[f], "duplicate fragment %q", f)
		seen[f] = true
		assert.Equal(t, fmt.Sprintf("f-%d", i), f, "single appender order must survive snapshots")
	}
}

func TestConversations(t *testing.T) {
	s := New()
	require.NoError(t, s.Append("A", "x"))
	require.NoError(t, s.Append("B", "y"))
	assert.Equal(t, 2, s.Conversations())

	s.Clear("A")
	assert.Equal(t, 1, s.Conversations())
}
