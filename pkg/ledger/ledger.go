// Package ledger builds and validates bill records and hands them to a store.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monayhq/monay/pkg/api"
)

// DefaultAccountID is the single account every bill belongs to.
const DefaultAccountID int64 = 1

// ManualEntry is a bill typed in by the user.
// Direction may be the English name or the Chinese label.
type ManualEntry struct {
	Direction  api.Direction `json:"direction"`
	Category   string        `json:"category"`
	Amount     string        `json:"amount"`
	OccurredAt time.Time     `json:"occurred_at,omitzero"`
	Note       string        `json:"note,omitempty"`
}

// Config configures a Ledger.
type Config struct {
	AccountID int64
	// Now overrides the wall clock in tests.
	Now func() time.Time
}

// Ledger validates bills before they reach the store.
type Ledger struct {
	store     api.BillStore
	accountID int64
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a ledger over store.
func New(store api.BillStore, cfg Config, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AccountID == 0 {
		cfg.AccountID = DefaultAccountID
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ledger{
		store:     store,
		accountID: cfg.AccountID,
		now:       cfg.Now,
		logger:    logger.With("component", "ledger"),
	}
}

// ParseAmount reads user-typed amount text. Currency marks, 元, spaces and
// thousands separators are ignored. Text that is not a number yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.NewReplacer("¥", "", "￥", "", "元", "", ",", "", "，", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// Build turns a manual entry into a validated record without storing it.
func (l *Ledger) Build(e ManualEntry) (api.BillRecord, error) {
	direction, err := api.ParseDirection(string(e.Direction))
	if err != nil {
		return api.BillRecord{}, err
	}
	category, err := api.ParseCategory(e.Category)
	if err != nil {
		return api.BillRecord{}, err
	}

	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = l.now()
	}

	b := api.BillRecord{
		AccountID:  l.accountID,
		Direction:  direction,
		Category:   category,
		Amount:     ParseAmount(e.Amount),
		OccurredAt: occurred.Truncate(time.Millisecond),
		Note:       noteOrNil(e.Note),
	}
	if err := b.Validate(); err != nil {
		return api.BillRecord{}, err
	}
	return b, nil
}

// AddManual validates and stores a manual entry.
func (l *Ledger) AddManual(ctx context.Context, e ManualEntry) (api.BillRecord, error) {
	b, err := l.Build(e)
	if err != nil {
		return api.BillRecord{}, err
	}
	return l.insert(ctx, b)
}

// FromParsed builds a record for a parsed notification. The notification
// carries no transaction time, so the bill is stamped with now.
func FromParsed(tx api.ParsedTransaction, now time.Time) (api.BillRecord, error) {
	if !tx.Valid {
		return api.BillRecord{}, fmt.Errorf("parsed transaction is not valid")
	}
	b := api.BillRecord{
		AccountID:  DefaultAccountID,
		Direction:  tx.Direction,
		Category:   tx.Category,
		Amount:     tx.Amount.Round(2),
		OccurredAt: now.Truncate(time.Millisecond),
		Note:       noteOrNil(tx.RawText),
	}
	if err := b.Validate(); err != nil {
		return api.BillRecord{}, err
	}
	return b, nil
}

// Record stores a parsed notification.
func (l *Ledger) Record(ctx context.Context, tx api.ParsedTransaction) (api.BillRecord, error) {
	b, err := FromParsed(tx, l.now())
	if err != nil {
		return api.BillRecord{}, err
	}
	b.AccountID = l.accountID
	return l.insert(ctx, b)
}

// List returns up to limit bills, newest first. Zero means all.
func (l *Ledger) List(ctx context.Context, limit int) ([]api.BillRecord, error) {
	bills, err := l.store.ListBills(ctx, api.ListOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return bills, nil
}

// Delete removes one bill. Unknown ids return api.ErrBillNotFound.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	if err := l.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("deleting bill %d: %w", id, err)
	}
	l.logger.Info("bill deleted", "id", id)
	return nil
}

func (l *Ledger) insert(ctx context.Context, b api.BillRecord) (api.BillRecord, error) {
	id, err := l.store.InsertBill(ctx, &b)
	if err != nil {
		return api.BillRecord{}, fmt.Errorf("inserting bill: %w", err)
	}
	b.ID = id
	l.logger.Debug("bill stored", "id", id, "direction", b.Direction, "category", b.Category, "amount", b.Amount.StringFixed(2))
	return b, nil
}

func noteOrNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
