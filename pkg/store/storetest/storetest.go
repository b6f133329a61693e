// Package storetest provides a behavioural test suite run against every
// api.BillStore implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monayhq/monay/pkg/api"
)

// Run exercises store. The store must start empty.
func Run(t *testing.T, store api.BillStore) {
	t.Helper()
	ctx := context.Background()

	loc := time.FixedZone("CST", 8*3600)
	may := time.Date(2024, 5, 1, 0, 0, 0, 0, loc)
	mayEnd := time.Date(2024, 5, 31, 23, 59, 59, 999_000_000, loc)

	note := "美团外卖\n已支付¥9.70"
	seed := []api.BillRecord{
		{AccountID: 1, Direction: api.Expense, Category: api.Food, Amount: dec("9.70"), OccurredAt: may.Add(time.Hour), Note: &note},
		{AccountID: 1, Direction: api.Expense, Category: api.Food, Amount: dec("20.30"), OccurredAt: may.Add(2 * time.Hour)},
		{AccountID: 1, Direction: api.Expense, Category: api.Transport, Amount: dec("30.00"), OccurredAt: may.Add(3 * time.Hour)},
		{AccountID: 1, Direction: api.Expense, Category: api.Shopping, Amount: dec("5.00"), OccurredAt: mayEnd},
		{AccountID: 1, Direction: api.Income, Category: api.Salary, Amount: dec("8000.00"), OccurredAt: may.Add(24 * time.Hour)},
		{AccountID: 1, Direction: api.Income, Category: api.TransferCat, Amount: dec("10.00"), OccurredAt: may.Add(48 * time.Hour)},
		// Outside May on both sides.
		{AccountID: 1, Direction: api.Expense, Category: api.Food, Amount: dec("99.00"), OccurredAt: may.Add(-time.Millisecond)},
		{AccountID: 1, Direction: api.Expense, Category: api.Food, Amount: dec("99.00"), OccurredAt: mayEnd.Add(time.Millisecond)},
	}

	ids := make([]int64, 0, len(seed))
	for i := range seed {
		id, err := store.InsertBill(ctx, &seed[i])
		if err != nil {
			t.Fatalf("InsertBill(%d) error: %v", i, err)
		}
		for _, prev := range ids {
			if prev == id {
				t.Fatalf("InsertBill(%d) reused id %d", i, id)
			}
		}
		ids = append(ids, id)
	}

	t.Run("list newest first", func(t *testing.T) {
		bills, err := store.ListBills(ctx, api.ListOptions{})
		if err != nil {
			t.Fatalf("ListBills() error: %v", err)
		}
		if len(bills) != len(seed) {
			t.Fatalf("bills: got %d, want %d", len(bills), len(seed))
		}
		for i := 1; i < len(bills); i++ {
			if bills[i].OccurredAt.After(bills[i-1].OccurredAt) {
				t.Errorf("bill %d (%v) is newer than bill %d (%v)", i, bills[i].OccurredAt, i-1, bills[i-1].OccurredAt)
			}
		}
		if !bills[0].OccurredAt.Equal(mayEnd.Add(time.Millisecond)) {
			t.Errorf("newest: got %v, want %v", bills[0].OccurredAt, mayEnd.Add(time.Millisecond))
		}
	})

	t.Run("list limit", func(t *testing.T) {
		bills, err := store.ListBills(ctx, api.ListOptions{Limit: 3})
		if err != nil {
			t.Fatalf("ListBills() error: %v", err)
		}
		if len(bills) != 3 {
			t.Errorf("bills: got %d, want 3", len(bills))
		}
	})

	t.Run("round trip fields", func(t *testing.T) {
		bills, err := store.ListBills(ctx, api.ListOptions{})
		if err != nil {
			t.Fatalf("ListBills() error: %v", err)
		}
		var found *api.BillRecord
		for i := range bills {
			if bills[i].ID == ids[0] {
				found = &bills[i]
			}
		}
		if found == nil {
			t.Fatalf("bill %d not listed", ids[0])
		}
		if !found.Amount.Equal(dec("9.70")) {
			t.Errorf("amount: got %s, want 9.70", found.Amount)
		}
		if found.Direction != api.Expense || found.Category != api.Food {
			t.Errorf("direction/category: got %s/%s", found.Direction, found.Category)
		}
		if !found.OccurredAt.Equal(seed[0].OccurredAt) {
			t.Errorf("occurred at: got %v, want %v", found.OccurredAt, seed[0].OccurredAt)
		}
		if found.Note == nil || *found.Note != note {
			t.Errorf("note: got %v, want %q", found.Note, note)
		}
		if found.AccountID != 1 {
			t.Errorf("account: got %d, want 1", found.AccountID)
		}
	})

	t.Run("sum by category", func(t *testing.T) {
		got, err := store.SumByCategory(ctx, api.Expense, may, mayEnd)
		if err != nil {
			t.Fatalf("SumByCategory() error: %v", err)
		}
		want := []api.CategoryAmount{
			{Category: api.Food, Amount: dec("30.00")},
			{Category: api.Transport, Amount: dec("30.00")},
			{Category: api.Shopping, Amount: dec("5.00")},
		}
		assertCategories(t, got, want)
	})

	t.Run("sum by category empty window", func(t *testing.T) {
		got, err := store.SumByCategory(ctx, api.Transfer, may, mayEnd)
		if err != nil {
			t.Fatalf("SumByCategory() error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("sums: got %+v, want none", got)
		}
	})

	t.Run("sum by direction", func(t *testing.T) {
		got, err := store.SumByDirection(ctx, may, mayEnd)
		if err != nil {
			t.Fatalf("SumByDirection() error: %v", err)
		}
		totals := map[api.Direction]decimal.Decimal{}
		for _, d := range got {
			totals[d.Direction] = d.Amount
		}
		if !totals[api.Expense].Equal(dec("65.00")) {
			t.Errorf("expense: got %s, want 65.00", totals[api.Expense])
		}
		if !totals[api.Income].Equal(dec("8010.00")) {
			t.Errorf("income: got %s, want 8010.00", totals[api.Income])
		}
		if _, ok := totals[api.Transfer]; ok {
			t.Errorf("transfer: got %s, want absent", totals[api.Transfer])
		}
	})

	t.Run("rejects invalid rows", func(t *testing.T) {
		bad := []api.BillRecord{
			{AccountID: 1, Direction: api.Expense, Category: api.Food, Amount: decimal.Zero, OccurredAt: may},
			{AccountID: 1, Direction: "refund", Category: api.Food, Amount: dec("1"), OccurredAt: may},
		}
		for i := range bad {
			if _, err := store.InsertBill(ctx, &bad[i]); err == nil {
				t.Errorf("InsertBill(%+v) succeeded, want error", bad[i])
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteBill(ctx, ids[1]); err != nil {
			t.Fatalf("DeleteBill() error: %v", err)
		}
		if err := store.DeleteBill(ctx, ids[1]); !errors.Is(err, api.ErrBillNotFound) {
			t.Errorf("second DeleteBill(): got %v, want %v", err, api.ErrBillNotFound)
		}
		got, err := store.SumByCategory(ctx, api.Expense, may, mayEnd)
		if err != nil {
			t.Fatalf("SumByCategory() error: %v", err)
		}
		want := []api.CategoryAmount{
			{Category: api.Transport, Amount: dec("30.00")},
			{Category: api.Food, Amount: dec("9.70")},
			{Category: api.Shopping, Amount: dec("5.00")},
		}
		assertCategories(t, got, want)
	})
}

func assertCategories(t *testing.T, got, want []api.CategoryAmount) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("sums: got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i].Category != want[i].Category || !got[i].Amount.Equal(want[i].Amount) {
			t.Errorf("sum %d: got %s=%s, want %s=%s", i, got[i].Category, got[i].Amount, want[i].Category, want[i].Amount)
		}
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
