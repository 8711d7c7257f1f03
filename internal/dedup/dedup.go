package dedup

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const DefaultTTL = 24 * time.Hour

// badgerLoggerAdapter adapts slog.Logger to badger.Logger.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Filter remembers delivery IDs for a while so that redelivered webhook
// updates are processed once.
type Filter struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open creates a filter backed by badger at path, or in memory when path is
// empty.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Filter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create dedup dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLoggerAdapter{logger: logger.With("component", "badger")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}
	return &Filter{db: db, ttl: ttl, logger: logger}, nil
}

func updateKey(id int64) []byte {
	return []byte(fmt.Sprintf("update/%d", id))
}

// Seen marks id as delivered and reports whether it already was. Two
// concurrent calls for the same id conflict in badger; the loser counts as
// already seen.
func (f *Filter) Seen(id int64) (bool, error) {
	key := updateKey(id)
	seen := false

	err := f.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			seen = true
			return nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		stamp := []byte(time.Now().UTC().Format(time.RFC3339))
		return txn.SetEntry(badger.NewEntry(key, stamp).WithTTL(f.ttl))
	})
	if errors.Is(err, badger.ErrConflict) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup update %d: %w", id, err)
	}
	return seen, nil
}

// Forget drops id so a later delivery is processed again.
func (f *Filter) Forget(id int64) error {
	return f.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(updateKey(id))
	})
}

func (f *Filter) Close() error {
	return f.db.Close()
}
