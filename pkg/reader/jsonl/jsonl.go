// Package jsonl reads notifications encoded as one JSON object per line.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/monayhq/monay/pkg/api"
)

const maxLineSize = 1 << 20

// Config holds the jsonl reader configuration.
type Config struct {
	// Path is the file to read. "-" or empty reads standard input.
	Path string `json:"path"`
}

// Reader streams notifications from a file or another io.Reader.
type Reader struct {
	path   string
	src    io.Reader
	now    func() time.Time
	logger *slog.Logger
}

// New creates a reader for cfg.Path.
func New(cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		path:   cfg.Path,
		now:    time.Now,
		logger: logger.With("component", "jsonl"),
	}
}

// NewFromReader creates a reader over src.
func NewFromReader(src io.Reader, logger *slog.Logger) *Reader {
	r := New(Config{}, logger)
	r.src = src
	return r
}

// Read sends every well-formed line to out and closes out at EOF.
// Malformed lines are logged and skipped.
func (r *Reader) Read(ctx context.Context, out chan<- *api.RawNotification) error {
	defer close(out)

	src, closeFn, err := r.open()
	if err != nil {
		return err
	}
	defer closeFn()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	sent := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var n api.RawNotification
		if err := json.Unmarshal([]byte(text), &n); err != nil {
			r.logger.Warn("skipping malformed line", "line", line, "error", err)
			continue
		}
		if n.SourceApp == "" {
			r.logger.Warn("skipping line without source", "line", line)
			continue
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.ObservedAt.IsZero() {
			n.ObservedAt = r.now()
		}

		select {
		case out <- &n:
			sent++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading notifications: %w", err)
	}

	r.logger.Info("finished reading notifications", "lines", line, "sent", sent)
	return nil
}

func (r *Reader) open() (io.Reader, func(), error) {
	if r.src != nil {
		return r.src, func() {}, nil
	}
	if r.path == "" || r.path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", r.path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
