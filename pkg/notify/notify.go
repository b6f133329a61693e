// Package notify tells the user that a bill was recorded automatically.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/monayhq/monay/pkg/api"
)

// DefaultInterval is the minimum gap between two notices.
const DefaultInterval = 3 * time.Second

// Notifier delivers a "recorded" notice. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, bill api.BillRecord, tx api.ParsedTransaction)
}

// Message is a rendered notice.
type Message struct {
	Title string
	Text  string
}

// Render formats the notice for a stored bill, e.g. "支出已自动记录" /
// "美团外卖: -¥9.70 (餐饮)".
func Render(bill api.BillRecord, tx api.ParsedTransaction) Message {
	sign := "+"
	if bill.Direction == api.Expense {
		sign = "-"
	}
	counterparty := tx.Counterparty
	if counterparty == "" {
		counterparty = api.UnknownMerchant
	}
	return Message{
		Title: bill.Direction.Label() + "已自动记录",
		Text:  fmt.Sprintf("%s: %s¥%s (%s)", counterparty, sign, bill.Amount.StringFixed(2), bill.Category.Label()),
	}
}

// Log writes notices to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a notifier that logs each notice at info level.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger.With("component", "notify")}
}

func (l *Log) Notify(ctx context.Context, bill api.BillRecord, tx api.ParsedTransaction) {
	msg := Render(bill, tx)
	l.logger.InfoContext(ctx, msg.Title, "text", msg.Text, "bill_id", bill.ID)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, bill api.BillRecord, tx api.ParsedTransaction)

func (f Func) Notify(ctx context.Context, bill api.BillRecord, tx api.ParsedTransaction) {
	f(ctx, bill, tx)
}

// Throttle drops notices that arrive within the interval of the last one
// shown. Dropped notices are never queued.
type Throttle struct {
	next    Notifier
	now     func() time.Time
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewThrottle wraps next. A nil clock uses time.Now; a zero interval uses
// DefaultInterval.
func NewThrottle(next Notifier, interval time.Duration, now func() time.Time) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{
		next:    next,
		now:     now,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Allow reports whether a notice may be shown now and, if so, consumes the slot.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter.AllowN(t.now(), 1)
}

func (t *Throttle) Notify(ctx context.Context, bill api.BillRecord, tx api.ParsedTransaction) {
	if !t.Allow() {
		return
	}
	t.next.Notify(ctx, bill, tx)
}
