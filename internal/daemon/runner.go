// Package daemon wires readers, the ingestion pipeline, the bill store and the
// HTTP API into a running monay instance.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/monayhq/monay/internal/plugins"
	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/categorizer"
	"github.com/monayhq/monay/pkg/config"
	"github.com/monayhq/monay/pkg/ingest"
	"github.com/monayhq/monay/pkg/ledger"
	"github.com/monayhq/monay/pkg/notify"
	"github.com/monayhq/monay/pkg/parser"
	"github.com/monayhq/monay/pkg/server"
	"github.com/monayhq/monay/pkg/stats"
)

const (
	channelBuffer   = 100
	shutdownTimeout = 10 * time.Second
)

// Runner manages the monay daemon lifecycle.
type Runner struct {
	registry *plugins.Registry
	logger   *slog.Logger
}

// New creates a new daemon runner.
func New(registry *plugins.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry: registry,
		logger:   logger,
	}
}

// App holds the components built from one configuration.
type App struct {
	Config   config.Config
	Location *time.Location
	Store    api.BillStore
	Parser   *parser.Parser
	Ledger   *ledger.Ledger
	Stats    *stats.Aggregator
	Metrics  *prometheus.Registry
	Notifier notify.Notifier
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Pipeline returns an ingestion pipeline bound to the app's parser, ledger and
// notifier. It registers the pipeline metrics on a.Metrics, so call it once per App.
func (a *App) Pipeline(logger *slog.Logger) *ingest.Pipeline {
	return ingest.New(a.Parser, a.Ledger, ingest.Config{
		Notifier:   a.Notifier,
		Registerer: a.Metrics,
	}, logger)
}

// Open opens the configured store and builds the parser, ledger and aggregator.
func (r *Runner) Open(ctx context.Context, cfg config.Config) (*App, error) {
	if cfg.Store == "" {
		return nil, fmt.Errorf("MONAY_STORE is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	p, err := BuildParser(cfg)
	if err != nil {
		return nil, err
	}

	store, err := r.registry.CreateStore(ctx, cfg.Store, cfg.StoreJSON(), loc,
		r.logger.With("component", "store", "plugin", cfg.Store))
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		Config:   cfg,
		Location: loc,
		Store:    store,
		Parser:   p,
		Ledger:   ledger.New(store, ledger.Config{AccountID: cfg.AccountID}, r.logger),
		Stats:    stats.New(store, loc),
		Metrics:  reg,
		Notifier: notify.NewThrottle(notify.NewLog(r.logger), cfg.NotifyInterval, time.Now),
	}, nil
}

// BuildParser returns the parser for cfg, reading the optional rule and
// category override files.
func BuildParser(cfg config.Config) (*parser.Parser, error) {
	var pc parser.Config

	if cfg.RulesFile != "" {
		f, err := os.Open(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("opening rules file: %w", err)
		}
		defer f.Close()
		rules, err := parser.LoadRules(f)
		if err != nil {
			return nil, fmt.Errorf("loading rules from %s: %w", cfg.RulesFile, err)
		}
		pc.Rules = rules
	}

	if cfg.CategoriesFile != "" {
		f, err := os.Open(cfg.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("opening categories file: %w", err)
		}
		defer f.Close()
		c, err := categorizer.Load(f)
		if err != nil {
			return nil, fmt.Errorf("loading categories from %s: %w", cfg.CategoriesFile, err)
		}
		pc.Categorizer = c
	}

	return parser.New(pc), nil
}

// Run starts the configured reader, the pipeline and the HTTP API.
// It blocks until ctx is canceled or the HTTP server fails.
func (r *Runner) Run(ctx context.Context, cfg config.Config) error {
	if cfg.Reader == "" {
		return fmt.Errorf("MONAY_READER is required")
	}

	app, err := r.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			r.logger.Error("closing store", "error", err)
		}
	}()

	reader, err := r.registry.CreateReader(cfg.Reader, cfg.ReaderJSON(),
		r.logger.With("component", "reader", "plugin", cfg.Reader))
	if err != nil {
		return fmt.Errorf("creating reader: %w", err)
	}

	r.logger.Info("starting monay daemon",
		"reader", cfg.Reader,
		"store", cfg.Store,
		"listen", cfg.Listen,
		"timezone", app.Location.String(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipeline := app.Pipeline(r.logger)

	var hook http.Handler
	if h, ok := reader.(http.Handler); ok {
		hook = h
	}
	srv := server.New(server.Config{
		Ledger:        app.Ledger,
		Stats:         app.Stats,
		Parser:        app.Parser,
		Notifications: hook,
		Gatherer:      app.Metrics,
		Location:      app.Location,
	}, r.logger)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	notifications := make(chan *api.RawNotification, channelBuffer)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := reader.Read(ctx, notifications); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("reader error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := pipeline.Run(ctx, notifications); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("pipeline error", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		r.logger.Info("http server listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http server shutdown", "error", err)
	}

	wg.Wait()
	pipeline.Wait()

	r.logger.Info("daemon stopped")
	return runErr
}

// Tally counts pipeline outcomes.
type Tally map[ingest.Outcome]int

// Ingest runs every notification from reader through the pipeline, one at a
// time, until the reader closes its channel.
func (r *Runner) Ingest(ctx context.Context, app *App, reader api.Reader) (Tally, error) {
	pipeline := app.Pipeline(r.logger)
	notifications := make(chan *api.RawNotification, channelBuffer)

	readErr := make(chan error, 1)
	go func() {
		readErr <- reader.Read(ctx, notifications)
	}()

	tally := Tally{}
	for n := range notifications {
		res := pipeline.Process(ctx, n)
		tally[res.Outcome]++
	}

	if err := <-readErr; err != nil {
		return tally, fmt.Errorf("reading notifications: %w", err)
	}
	return tally, nil
}
