// Package ingest turns incoming notifications into stored bills.
//
// Handle filters on the source allow-list and then parses and stores the
// notification on its own goroutine. That work is detached from the caller's
// cancellation and has no deadline; Wait lets shutdown drain it.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/ledger"
	"github.com/monayhq/monay/pkg/notify"
	"github.com/monayhq/monay/pkg/parser"
)

// Outcome is what happened to one notification.
type Outcome int

const (
	// OutcomeRejected means the source app is not on the allow-list.
	OutcomeRejected Outcome = iota
	// OutcomeUnparsed means no rule produced a valid transaction.
	OutcomeUnparsed
	// OutcomeStored means a bill was inserted.
	OutcomeStored
	// OutcomeFailed means the store refused the bill.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnparsed:
		return "unparsed"
	case OutcomeStored:
		return "stored"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result reports the outcome of Process.
type Result struct {
	Outcome     Outcome
	Transaction api.ParsedTransaction
	Bill        api.BillRecord
	Err         error
}

// Config holds optional pipeline collaborators.
type Config struct {
	// Notifier is told about every stored bill. Nil disables notices.
	Notifier notify.Notifier
	// Registerer receives the pipeline metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	// OnResult, if set, is called after every processed notification.
	OnResult func(*api.RawNotification, Result)
}

// Pipeline connects the parser, the ledger and the notifier.
type Pipeline struct {
	parser   *parser.Parser
	ledger   *ledger.Ledger
	notifier notify.Notifier
	onResult func(*api.RawNotification, Result)
	metrics  *metrics
	logger   *slog.Logger

	wg sync.WaitGroup
}

// New creates a pipeline.
func New(p *parser.Parser, l *ledger.Ledger, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		parser:   p,
		ledger:   l,
		notifier: cfg.Notifier,
		onResult: cfg.OnResult,
		metrics:  newMetrics(cfg.Registerer),
		logger:   logger.With("component", "ingest"),
	}
}

// Handle accepts one notification. It returns false when the source is not
// allow-listed; otherwise parsing and storage run in the background.
func (p *Pipeline) Handle(ctx context.Context, n *api.RawNotification) bool {
	if n == nil {
		return false
	}
	if !p.parser.Allowed(n.SourceApp) {
		p.finish(n, Result{Outcome: OutcomeRejected})
		return false
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	detached := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Process(detached, n)
	}()
	return true
}

// Process parses and stores n synchronously. It never panics.
func (p *Pipeline) Process(ctx context.Context, n *api.RawNotification) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeFailed, Err: fmt.Errorf("panic: %v", r)}
			p.finish(n, res)
		}
	}()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if !p.parser.Allowed(n.SourceApp) {
		res = Result{Outcome: OutcomeRejected}
		p.finish(n, res)
		return res
	}

	tx := p.parser.Parse(n.SourceApp, n.Title, n.Body)
	if !tx.Valid {
		res = Result{Outcome: OutcomeUnparsed, Transaction: tx}
		p.finish(n, res)
		return res
	}

	start := time.Now()
	bill, err := p.ledger.Record(ctx, tx)
	p.metrics.persist.Observe(time.Since(start).Seconds())
	if err != nil {
		res = Result{Outcome: OutcomeFailed, Transaction: tx, Err: err}
		p.finish(n, res)
		return res
	}

	res = Result{Outcome: OutcomeStored, Transaction: tx, Bill: bill}
	p.finish(n, res)
	if p.notifier != nil {
		p.notifier.Notify(ctx, bill, tx)
	}
	return res
}

// Run feeds notifications from in to Handle until in is closed or ctx ends.
func (p *Pipeline) Run(ctx context.Context, in <-chan *api.RawNotification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-in:
			if !ok {
				return nil
			}
			p.Handle(ctx, n)
		}
	}
}

// Wait blocks until every dispatched notification has been processed.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) finish(n *api.RawNotification, res Result) {
	p.metrics.notifications.WithLabelValues(res.Outcome.String()).Inc()

	switch res.Outcome {
	case OutcomeRejected:
		p.logger.Debug("notification source not allowed", "source", n.SourceApp)
	case OutcomeUnparsed:
		p.logger.Info("notification not recognized", "id", n.ID, "source", n.SourceApp)
	case OutcomeFailed:
		p.logger.Error("failed to store bill", "id", n.ID, "source", n.SourceApp, "error", res.Err)
	case OutcomeStored:
		p.logger.Info("bill recorded",
			"id", n.ID,
			"bill_id", res.Bill.ID,
			"rule", res.Transaction.Rule,
			"direction", res.Bill.Direction,
			"amount", res.Bill.Amount.StringFixed(2),
			"category", res.Bill.Category,
		)
	}

	if p.onResult != nil {
		p.onResult(n, res)
	}
}
