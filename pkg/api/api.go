// Package api defines the core interfaces and data structures for monay.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrBillNotFound is returned when deleting or reading a bill id that does not exist.
	ErrBillNotFound = errors.New("bill not found")
	// ErrNonPositiveAmount is returned when a bill amount is zero or negative.
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	// ErrAmountTooLarge is returned when an amount in fen does not fit in an int64.
	ErrAmountTooLarge = errors.New("amount too large")
	// ErrInvalidDirection is returned for a direction outside income/expense/transfer.
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrInvalidCategory is returned when a bill has no category.
	ErrInvalidCategory = errors.New("invalid category")
)

// Direction classifies a bill as income, expense or transfer.
type Direction string

const (
	Income   Direction = "income"
	Expense  Direction = "expense"
	Transfer Direction = "transfer"
)

// Directions lists every valid direction in display order.
var Directions = []Direction{Income, Expense, Transfer}

var directionLabels = map[Direction]string{
	Income:   "收入",
	Expense:  "支出",
	Transfer: "转账",
}

// Valid reports whether d is one of the three known directions.
func (d Direction) Valid() bool {
	_, ok := directionLabels[d]
	return ok
}

// Label returns the Chinese display label (收入/支出/转账).
func (d Direction) Label() string {
	return directionLabels[d]
}

// ParseDirection accepts either the English name or the Chinese label.
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(s)
	for d, label := range directionLabels {
		if strings.EqualFold(s, string(d)) || s == label {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Category is a spending or income purpose assigned to a bill.
type Category string

// Categories produced by the categorizer.
const (
	Food          Category = "food"
	Transport     Category = "transport"
	Shopping      Category = "shopping"
	Entertainment Category = "entertainment"
	Housing       Category = "housing"
	Medical       Category = "medical"
	Education     Category = "education"
	Other         Category = "other"
)

// Categories only reachable through manual entry or fixed parser rules.
const (
	Salary       Category = "salary"
	Bonus        Category = "bonus"
	Interest     Category = "interest"
	TransferCat  Category = "transfer"
	RepaymentCat Category = "repayment"
)

// UnknownMerchant is the counterparty used when none can be extracted.
const UnknownMerchant = "未知商家"

var categoryLabels = map[Category]string{
	Food:          "餐饮",
	Transport:     "交通",
	Shopping:      "购物",
	Entertainment: "娱乐",
	Housing:       "住房",
	Medical:       "医疗",
	Education:     "教育",
	Other:         "其他",
	Salary:        "工资",
	Bonus:         "奖金",
	Interest:      "利息",
	TransferCat:   "转账",
	RepaymentCat:  "还款",
}

// Label returns the Chinese display label, or the raw value for custom categories.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory maps an English name or Chinese label to a Category.
// Unknown non-empty values are kept verbatim.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidCategory
	}
	for c, label := range categoryLabels {
		if strings.EqualFold(s, string(c)) || s == label {
			return c, nil
		}
	}
	return Category(s), nil
}

// RawNotification is a single notification as posted by an app on the device.
type RawNotification struct {
	ID         string    `json:"id,omitempty"`
	SourceApp  string    `json:"source"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ObservedAt time.Time `json:"observed_at,omitzero"`
}

// ParsedTransaction is the result of running a notification through the parser.
// Callers must check Valid before using any other field.
type ParsedTransaction struct {
	Valid        bool            `json:"valid"`
	Direction    Direction       `json:"direction,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty,omitempty"`
	Category     Category        `json:"category,omitempty"`
	RawText      string          `json:"raw_text,omitempty"`
	// Rule is the name of the rule that matched.
	Rule string `json:"rule,omitempty"`
}

// BillRecord is a persisted income, expense or transfer entry.
type BillRecord struct {
	ID         int64           `json:"id"`
	AccountID  int64           `json:"account_id"`
	Direction  Direction       `json:"direction"`
	Category   Category        `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
	Note       *string         `json:"note,omitempty"`
}

// Validate checks the record invariants enforced before every insert.
func (b *BillRecord) Validate() error {
	if !b.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, b.Direction)
	}
	if b.Category == "" {
		return ErrInvalidCategory
	}
	if !b.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !b.Amount.Round(2).Shift(2).BigInt().IsInt64() {
		return fmt.Errorf("%w: %s", ErrAmountTooLarge, b.Amount)
	}
	return nil
}

// CategoryAmount is the summed amount of one category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// DirectionAmount is the summed amount of one direction.
type DirectionAmount struct {
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

// ListOptions restricts a bill listing.
type ListOptions struct {
	// Limit caps the number of bills returned. Zero means no limit.
	Limit int
}

// Reader reads notifications from a source and sends them to the provided channel.
// Implementations should close the channel when done or on error.
type Reader interface {
	Read(ctx context.Context, out chan<- *RawNotification) error
}

// BillStore is the single-table transaction store.
// Bills are only ever inserted or deleted, never updated.
type BillStore interface {
	// InsertBill stores b and returns the new row id.
	InsertBill(ctx context.Context, b *BillRecord) (int64, error)
	// ListBills returns bills newest first.
	ListBills(ctx context.Context, opts ListOptions) ([]BillRecord, error)
	// DeleteBill removes a bill, returning ErrBillNotFound for unknown ids.
	DeleteBill(ctx context.Context, id int64) error
	// SumByCategory sums amounts of one direction grouped by category within [start, end].
	SumByCategory(ctx context.Context, dir Direction, start, end time.Time) ([]CategoryAmount, error)
	// SumByDirection sums amounts grouped by direction within [start, end].
	SumByDirection(ctx context.Context, start, end time.Time) ([]DirectionAmount, error)
	Close() error
}
