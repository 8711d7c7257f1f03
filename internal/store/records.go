package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/record"
)

// Append writes one committed record under a fresh ID.
func (s *Store) Append(ctx context.Context, rec record.Record) error {
	_, err := s.insert(ctx, rec)
	return err
}

func (s *Store) insert(ctx context.Context, rec record.Record) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scribe_records (id, title, body, reserved, category, done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, rec.Title, rec.Body, rec.Reserved[:], rec.Category, rec.Done, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert record: %w", err)
	}
	return id, nil
}

// CountRecords returns how many records have been committed. It backs the
// status endpoint.
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM scribe_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
