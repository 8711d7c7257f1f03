package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/panjf2000/ants/v2"

	"github.com/MikeSquared-Agency/scribe/internal/events"
)

// Processor handles one inbound event to completion.
type Processor interface {
	Process(ctx context.Context, evt events.Event)
}

// Deduplicator remembers which webhook deliveries were already accepted.
type Deduplicator interface {
	Seen(updateID int64) (bool, error)
	Forget(updateID int64) error
}

// DraftCounter reports how many conversations hold an uncommitted draft.
type DraftCounter interface {
	Conversations() int
}

// RecordCounter reports how many records the sink holds.
type RecordCounter interface {
	CountRecords(ctx context.Context) (int64, error)
}

type Options struct {
	Port          int
	WebhookPath   string
	WebhookSecret string
	Workers       int
	// Status is static deployment info echoed by the status endpoint.
	Status map[string]string
	// Drafts and Records are optional live counters for the status endpoint.
	Drafts  DraftCounter
	Records RecordCounter
}

type Server struct {
	router  *chi.Mux
	http    *http.Server
	port    int
	proc    Processor
	dedup   Deduplicator
	pool    *ants.Pool
	secret  string
	status  map[string]string
	drafts  DraftCounter
	records RecordCounter
	started time.Time
	logger  *slog.Logger

	accepted   atomic.Int64
	duplicates atomic.Int64
	ignored    atomic.Int64
}

// NewServer builds the router. dedup may be nil.
func NewServer(opts Options, proc Processor, dedup Deduplicator, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	logger = logger.With("component", "api")

	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(p any) {
		logger.Error("panic while processing event", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    opts.Port,
		proc:    proc,
		dedup:   dedup,
		pool:    pool,
		secret:  opts.WebhookSecret,
		status:  opts.Status,
		drafts:  opts.Drafts,
		records: opts.Records,
		started: time.Now(),
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/scribe/status", s.statusHandler)
	router.Post("/"+strings.Trim(opts.WebhookPath, "/"), s.webhook)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight webhooks and then
// releases the worker pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if perr := s.pool.ReleaseTimeout(timeout); perr != nil && err == nil {
		err = fmt.Errorf("release worker pool: %w", perr)
	}
	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"service":         "scribe",
		"status":          "ok",
		"uptime_seconds":  int64(time.Since(s.started).Seconds()),
		"workers_running": s.pool.Running(),
		"workers_cap":     s.pool.Cap(),
		"updates": map[string]int64{
			"accepted":   s.accepted.Load(),
			"duplicates": s.duplicates.Load(),
			"ignored":    s.ignored.Load(),
		},
	}
	for k, v := range s.status {
		body[k] = v
	}
	if s.drafts != nil {
		body["open_drafts"] = s.drafts.Conversations()
	}
	if s.records != nil {
		n, err := s.records.CountRecords(r.Context())
		if err != nil {
			s.logger.Warn("record count unavailable", "error", err)
			body["status"] = "degraded"
		} else {
			body["records_committed"] = n
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
