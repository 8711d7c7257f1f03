package api

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/MikeSquared-Agency/scribe/internal/telegram"
)

// SecretHeader carries the webhook secret Telegram was registered with.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// webhook accepts one Telegram update. The response is held until the event
// has been processed so that a single delivery connection stays ordered.
func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			s.logger.Warn("webhook secret mismatch", "remote", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	upd, err := telegram.ParseUpdate(body)
	if err != nil {
		s.logger.Warn("malformed update", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed update"})
		return
	}

	if s.dedup != nil {
		seen, err := s.dedup.Seen(upd.ID)
		if err != nil {
			s.logger.Warn("dedup check failed, processing anyway", "update_id", upd.ID, "error", err)
		} else if seen {
			s.duplicates.Add(1)
			s.logger.Info("duplicate update skipped", "update_id", upd.ID)
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
	}

	evt, ok := telegram.EventOf(upd)
	if !ok {
		s.ignored.Add(1)
		s.logger.Debug("ignoring update", "update_id", upd.ID)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	// Telegram may drop the connection on slow handlers; the event still
	// has to finish.
	ctx := context.WithoutCancel(r.Context())
	done := make(chan struct{})
	err = s.pool.Submit(func() {
		defer close(done)
		s.proc.Process(ctx, evt)
	})
	if err != nil {
		s.logger.Error("cannot schedule update", "update_id", upd.ID, "error", err)
		if s.dedup != nil {
			if ferr := s.dedup.Forget(upd.ID); ferr != nil {
				s.logger.Warn("dedup forget failed", "update_id", upd.ID, "error", ferr)
			}
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "busy"})
		return
	}
	<-done

	s.accepted.Add(1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
