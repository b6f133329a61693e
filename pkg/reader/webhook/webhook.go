// Package webhook receives notifications POSTed by a phone-side forwarder.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/monayhq/monay/pkg/api"
)

// Path is where the server mounts the handler.
const Path = "/api/notifications"

// ErrAlreadyRunning is returned when Read is called twice concurrently.
var ErrAlreadyRunning = errors.New("webhook reader already running")

// Config holds the webhook reader configuration.
type Config struct {
	// MaxBodyBytes caps the request size. Zero means 64 KiB.
	MaxBodyBytes int64 `json:"max_body_bytes"`
}

// Reader is both an api.Reader and the http.Handler feeding it.
type Reader struct {
	maxBody int64
	now     func() time.Time
	logger  *slog.Logger

	mu   sync.RWMutex
	out  chan<- *api.RawNotification
	done chan struct{}
}

// New creates a webhook reader.
func New(cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Reader{
		maxBody: cfg.MaxBodyBytes,
		now:     time.Now,
		logger:  logger.With("component", "webhook"),
	}
}

// Read serves posted notifications into out until ctx ends, then closes out.
func (r *Reader) Read(ctx context.Context, out chan<- *api.RawNotification) error {
	r.mu.Lock()
	if r.out != nil {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.out = out
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	r.logger.Info("accepting notifications", "path", Path)
	<-ctx.Done()

	close(done)
	r.mu.Lock()
	r.out = nil
	close(out)
	r.mu.Unlock()
	return nil
}

type response struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

func (r *Reader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, response{Error: "method not allowed"})
		return
	}

	var n api.RawNotification
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, r.maxBody))
	if err := dec.Decode(&n); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: fmt.Sprintf("decoding notification: %v", err)})
		return
	}
	n.SourceApp = strings.TrimSpace(n.SourceApp)
	if n.SourceApp == "" {
		writeJSON(w, http.StatusBadRequest, response{Error: "source is required"})
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.ObservedAt.IsZero() {
		n.ObservedAt = r.now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.out == nil {
		writeJSON(w, http.StatusServiceUnavailable, response{Error: "not accepting notifications"})
		return
	}

	select {
	case r.out <- &n:
		r.logger.Debug("notification received", "id", n.ID, "source", n.SourceApp)
		writeJSON(w, http.StatusAccepted, response{ID: n.ID})
	case <-r.done:
		writeJSON(w, http.StatusServiceUnavailable, response{Error: "shutting down"})
	case <-req.Context().Done():
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
