package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monayhq/monay/pkg/api"
)

type fakeStore struct {
	bills  []api.BillRecord
	nextID int64
	err    error
}

func (f *fakeStore) InsertBill(_ context.Context, b *api.BillRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	rec := *b
	rec.ID = f.nextID
	f.bills = append(f.bills, rec)
	return f.nextID, nil
}

func (f *fakeStore) ListBills(_ context.Context, opts api.ListOptions) ([]api.BillRecord, error) {
	out := make([]api.BillRecord, 0, len(f.bills))
	for i := len(f.bills) - 1; i >= 0; i-- {
		out = append(out, f.bills[i])
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeStore) DeleteBill(_ context.Context, id int64) error {
	for i, b := range f.bills {
		if b.ID == id {
			f.bills = append(f.bills[:i], f.bills[i+1:]...)
			return nil
		}
	}
	return api.ErrBillNotFound
}

func (f *fakeStore) SumByCategory(context.Context, api.Direction, time.Time, time.Time) ([]api.CategoryAmount, error) {
	return nil, nil
}

func (f *fakeStore) SumByDirection(context.Context, time.Time, time.Time) ([]api.DirectionAmount, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

var fixedNow = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

func newTestLedger(store api.BillStore) *Ledger {
	return New(store, Config{Now: func() time.Time { return fixedNow }}, nil)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5", "12.50"},
		{" 1,234.56 ", "1234.56"},
		{"¥9.70", "9.70"},
		{"￥20元", "20.00"},
		{"3.14159", "3.14"},
		{"abc", "0"},
		{"", "0"},
		{"-5", "-5"},
	}

	for _, tc := range tests {
		got := ParseAmount(tc.in)
		if want := decimal.RequireFromString(tc.want); !got.Equal(want) {
			t.Errorf("ParseAmount(%q): got %s, want %s", tc.in, got, want)
		}
	}
}

func TestAddManual(t *testing.T) {
	store := &fakeStore{}
	l := newTestLedger(store)

	b, err := l.AddManual(context.Background(), ManualEntry{
		Direction: api.Expense,
		Category:  "餐饮",
		Amount:    "12.50",
		Note:      "午饭",
	})
	if err != nil {
		t.Fatalf("AddManual() error: %v", err)
	}
	if b.ID != 1 {
		t.Errorf("id: got %d, want 1", b.ID)
	}
	if b.Category != api.Food {
		t.Errorf("category: got %q, want %q", b.Category, api.Food)
	}
	if !b.OccurredAt.Equal(fixedNow) {
		t.Errorf("occurred at: got %v, want %v", b.OccurredAt, fixedNow)
	}
	if b.AccountID != DefaultAccountID {
		t.Errorf("account: got %d, want %d", b.AccountID, DefaultAccountID)
	}
	if b.Note == nil || *b.Note != "午饭" {
		t.Errorf("note: got %v, want 午饭", b.Note)
	}
	if len(store.bills) != 1 {
		t.Fatalf("stored bills: got %d, want 1", len(store.bills))
	}
}

func TestAddManual_Validation(t *testing.T) {
	tests := []struct {
		name    string
		entry   ManualEntry
		wantErr error
	}{
		{"unparsable amount", ManualEntry{Direction: api.Expense, Category: "food", Amount: "twelve"}, api.ErrNonPositiveAmount},
		{"zero amount", ManualEntry{Direction: api.Expense, Category: "food", Amount: "0"}, api.ErrNonPositiveAmount},
		{"negative amount", ManualEntry{Direction: api.Income, Category: "salary", Amount: "-3"}, api.ErrNonPositiveAmount},
		{"bad direction", ManualEntry{Direction: "refund", Category: "food", Amount: "3"}, api.ErrInvalidDirection},
		{"empty category", ManualEntry{Direction: api.Expense, Category: " ", Amount: "3"}, api.ErrInvalidCategory},
		{"empty direction", ManualEntry{Category: "food", Amount: "3"}, api.ErrInvalidDirection},
		{"amount beyond int64 fen", ManualEntry{Direction: api.Expense, Category: "food", Amount: "184467440737095517.16"}, api.ErrAmountTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			_, err := newTestLedger(store).AddManual(context.Background(), tc.entry)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error: got %v, want %v", err, tc.wantErr)
			}
			if len(store.bills) != 0 {
				t.Errorf("stored bills: got %d, want 0", len(store.bills))
			}
		})
	}
}

func TestAddManual_DirectionLabel(t *testing.T) {
	tests := []struct {
		in   api.Direction
		want api.Direction
	}{
		{"支出", api.Expense},
		{"收入", api.Income},
		{"转账", api.Transfer},
		{"Expense", api.Expense},
	}

	for _, tc := range tests {
		t.Run(string(tc.in), func(t *testing.T) {
			b, err := newTestLedger(&fakeStore{}).AddManual(context.Background(), ManualEntry{
				Direction: tc.in,
				Category:  "food",
				Amount:    "3",
			})
			if err != nil {
				t.Fatalf("AddManual() error: %v", err)
			}
			if b.Direction != tc.want {
				t.Errorf("direction: got %q, want %q", b.Direction, tc.want)
			}
		})
	}
}

func TestBuild_BlankNoteAndExplicitTime(t *testing.T) {
	at := time.Date(2023, 12, 31, 23, 59, 59, 999_999_999, time.UTC)
	b, err := newTestLedger(&fakeStore{}).Build(ManualEntry{
		Direction:  api.Income,
		Category:   "奖金",
		Amount:     "500",
		OccurredAt: at,
		Note:       "   ",
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if b.Note != nil {
		t.Errorf("note: got %q, want nil", *b.Note)
	}
	if want := at.Truncate(time.Millisecond); !b.OccurredAt.Equal(want) {
		t.Errorf("occurred at: got %v, want %v", b.OccurredAt, want)
	}
	if b.Category != api.Bonus {
		t.Errorf("category: got %q, want %q", b.Category, api.Bonus)
	}
}

func TestRecord(t *testing.T) {
	store := &fakeStore{}
	l := New(store, Config{AccountID: 7, Now: func() time.Time { return fixedNow }}, nil)

	tx := api.ParsedTransaction{
		Valid:        true,
		Direction:    api.Expense,
		Amount:       decimal.RequireFromString("9.70"),
		Counterparty: "美团外卖",
		Category:     api.Food,
		RawText:      "美团外卖\n已支付¥9.70",
	}
	b, err := l.Record(context.Background(), tx)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if b.AccountID != 7 {
		t.Errorf("account: got %d, want 7", b.AccountID)
	}
	if !b.OccurredAt.Equal(fixedNow) {
		t.Errorf("occurred at: got %v, want %v", b.OccurredAt, fixedNow)
	}
	if b.Note == nil || *b.Note != tx.RawText {
		t.Errorf("note: got %v, want %q", b.Note, tx.RawText)
	}
}

func TestFromParsed_Invalid(t *testing.T) {
	if _, err := FromParsed(api.ParsedTransaction{RawText: "x"}, fixedNow); err == nil {
		t.Error("expected error for invalid transaction, got nil")
	}
	zero := api.ParsedTransaction{Valid: true, Direction: api.Expense, Category: api.Other}
	if _, err := FromParsed(zero, fixedNow); !errors.Is(err, api.ErrNonPositiveAmount) {
		t.Errorf("error: got %v, want %v", err, api.ErrNonPositiveAmount)
	}
	huge := zero
	huge.Amount = decimal.RequireFromString("184467440737095517.16")
	if _, err := FromParsed(huge, fixedNow); !errors.Is(err, api.ErrAmountTooLarge) {
		t.Errorf("error: got %v, want %v", err, api.ErrAmountTooLarge)
	}
}

func TestListAndDelete(t *testing.T) {
	store := &fakeStore{}
	l := newTestLedger(store)
	ctx := context.Background()

	for _, amt := range []string{"1", "2", "3"} {
		if _, err := l.AddManual(ctx, ManualEntry{Direction: api.Expense, Category: "other", Amount: amt}); err != nil {
			t.Fatalf("AddManual(%s) error: %v", amt, err)
		}
	}

	bills, err := l.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(bills) != 2 || bills[0].ID != 3 {
		t.Fatalf("List(2): got %+v", bills)
	}

	if err := l.Delete(ctx, 2); err != nil {
		t.Fatalf("Delete(2) error: %v", err)
	}
	if err := l.Delete(ctx, 2); !errors.Is(err, api.ErrBillNotFound) {
		t.Errorf("second Delete(2): got %v, want %v", err, api.ErrBillNotFound)
	}
}
