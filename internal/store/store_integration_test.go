//go:build integration

package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/record"
)

// getRecord loads a record by ID.
func (s *Store) getRecord(ctx context.Context, id uuid.UUID) (*record.Record, error) {
	var (
		rec      record.Record
		reserved []string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, title, body, reserved, category, done, created_at, updated_at
		FROM scribe_records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Title, &rec.Body, &reserved, &rec.Category, &rec.Done, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	copy(rec.Reserved[:], reserved)
	return &rec, nil
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_InsertAndGetRecord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := record.Compose("", "", []string{"buy milk", "call mom"}, now)
	id, err := s.insert(ctx, rec)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM scribe_records WHERE id = $1", id)
	})

	got, err := s.getRecord(ctx, id)
	if err != nil {
		t.Fatalf("getRecord failed: %v", err)
	}
	if got.ID != id.String() {
		t.Errorf("expected id %s, got %s", id, got.ID)
	}
	if got.Body != "buy milk\ncall mom" {
		t.Errorf("expected body, got %q", got.Body)
	}
	if got.Title != record.DefaultTitle || got.Category != record.DefaultCategory {
		t.Errorf("expected defaults, got %q %q", got.Title, got.Category)
	}
	if got.Done {
		t.Error("expected done=false")
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("expected timestamps %v, got %v / %v", now, got.CreatedAt, got.UpdatedAt)
	}
}

func TestIntegration_AppendCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	before, err := s.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}

	rec := record.Compose("Integration", "#test", []string{"append path"}, time.Now())
	if err := s.Append(ctx, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	t.Cleanup(func() {
		s.pool.Exec(ctx, "DELETE FROM scribe_records WHERE category = '#test' AND title = 'Integration'")
	})

	after, err := s.CountRecords(ctx)
	if err != nil {
		t.Fatalf("CountRecords failed: %v", err)
	}
	if after != before+1 {
		t.Errorf("expected %d records, got %d", before+1, after)
	}
}
