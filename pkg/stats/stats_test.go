package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/store/sqlite"
)

func TestBounds(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)

	tests := []struct {
		name      string
		period    Period
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "month",
			period:    Period{Year: 2024, Month: time.May},
			wantStart: time.Date(2024, 5, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 5, 31, 23, 59, 59, 999_000_000, loc),
		},
		{
			name:      "leap february",
			period:    Period{Year: 2024, Month: time.February},
			wantStart: time.Date(2024, 2, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, loc),
		},
		{
			name:      "december",
			period:    Period{Year: 2023, Month: time.December},
			wantStart: time.Date(2023, 12, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2023, 12, 31, 23, 59, 59, 999_000_000, loc),
		},
		{
			name:      "year",
			period:    Period{Year: 2024},
			wantStart: time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
			wantEnd:   time.Date(2024, 12, 31, 23, 59, 59, 999_000_000, loc),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := tc.period.Bounds(loc)
			if !start.Equal(tc.wantStart) {
				t.Errorf("start: got %v, want %v", start, tc.wantStart)
			}
			if !end.Equal(tc.wantEnd) {
				t.Errorf("end: got %v, want %v", end, tc.wantEnd)
			}
		})
	}
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		in       Period
		next     Period
		previous Period
	}{
		{Period{2024, time.May}, Period{2024, time.June}, Period{2024, time.April}},
		{Period{2024, time.December}, Period{2025, time.January}, Period{2024, time.November}},
		{Period{2024, time.January}, Period{2024, time.February}, Period{2023, time.December}},
		{Period{Year: 2024}, Period{Year: 2025}, Period{Year: 2023}},
	}

	for _, tc := range tests {
		if got := tc.in.Next(); got != tc.next {
			t.Errorf("%s.Next(): got %s, want %s", tc.in, got, tc.next)
		}
		if got := tc.in.Previous(); got != tc.previous {
			t.Errorf("%s.Previous(): got %s, want %s", tc.in, got, tc.previous)
		}
	}
}

func TestValidate(t *testing.T) {
	bad := []Period{{Year: 1969}, {Year: 2024, Month: 13}, {Year: 2024, Month: -1}}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v): expected error, got nil", p)
		}
	}
	if err := (Period{Year: 2024, Month: 5}).Validate(); err != nil {
		t.Errorf("Validate(2024-05): %v", err)
	}
}

func TestSummarize(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	ctx := context.Background()

	s, err := sqlite.New(sqlite.Config{Path: ":memory:", Location: loc}, nil)
	if err != nil {
		t.Fatalf("sqlite.New() error: %v", err)
	}
	defer s.Close()

	may := time.Date(2024, 5, 15, 12, 0, 0, 0, loc)
	seed := []struct {
		dir      api.Direction
		category api.Category
		amount   string
		at       time.Time
	}{
		{api.Expense, api.Food, "9.70", may},
		{api.Expense, api.Food, "20.30", may},
		{api.Expense, api.Transport, "30.00", may},
		{api.Expense, api.Shopping, "45.50", may},
		{api.Income, api.Salary, "8000.00", may},
		{api.Income, api.TransferCat, "10.00", may},
		{api.Expense, api.Food, "100.00", time.Date(2024, 6, 1, 0, 0, 0, 0, loc)},
		{api.Expense, api.Food, "1.00", time.Date(2024, 4, 30, 23, 59, 59, 999_000_000, loc)},
	}
	for _, b := range seed {
		rec := api.BillRecord{AccountID: 1, Direction: b.dir, Category: b.category, Amount: decimal.RequireFromString(b.amount), OccurredAt: b.at}
		if _, err := s.InsertBill(ctx, &rec); err != nil {
			t.Fatalf("InsertBill() error: %v", err)
		}
	}

	agg := New(s, loc)

	t.Run("month", func(t *testing.T) {
		sum, err := agg.Summarize(ctx, Period{Year: 2024, Month: time.May})
		if err != nil {
			t.Fatalf("Summarize() error: %v", err)
		}

		expense := sum.Categories[api.Expense]
		want := []api.CategoryAmount{
			{Category: api.Shopping, Amount: decimal.RequireFromString("45.50")},
			{Category: api.Food, Amount: decimal.RequireFromString("30.00")},
			{Category: api.Transport, Amount: decimal.RequireFromString("30.00")},
		}
		if len(expense) != len(want) {
			t.Fatalf("expense categories: got %+v, want %+v", expense, want)
		}
		for i := range want {
			if expense[i].Category != want[i].Category || !expense[i].Amount.Equal(want[i].Amount) {
				t.Errorf("expense[%d]: got %s=%s, want %s=%s", i, expense[i].Category, expense[i].Amount, want[i].Category, want[i].Amount)
			}
		}

		if got := sum.Total(api.Expense); !got.Equal(decimal.RequireFromString("105.50")) {
			t.Errorf("expense total: got %s, want 105.50", got)
		}
		if got := sum.Total(api.Income); !got.Equal(decimal.RequireFromString("8010.00")) {
			t.Errorf("income total: got %s, want 8010.00", got)
		}
		if got := sum.Total(api.Transfer); !got.IsZero() {
			t.Errorf("transfer total: got %s, want 0", got)
		}
		if got := sum.Net(); !got.Equal(decimal.RequireFromString("7904.50")) {
			t.Errorf("net: got %s, want 7904.50", got)
		}
		if len(sum.Categories[api.Transfer]) != 0 {
			t.Errorf("transfer categories: got %+v, want none", sum.Categories[api.Transfer])
		}
	})

	t.Run("year", func(t *testing.T) {
		sum, err := agg.Summarize(ctx, Period{Year: 2024})
		if err != nil {
			t.Fatalf("Summarize() error: %v", err)
		}
		if got := sum.Total(api.Expense); !got.Equal(decimal.RequireFromString("206.50")) {
			t.Errorf("expense total: got %s, want 206.50", got)
		}
		if first := sum.Categories[api.Expense][0]; first.Category != api.Food {
			t.Errorf("largest expense category: got %s, want %s", first.Category, api.Food)
		}
	})

	t.Run("empty period", func(t *testing.T) {
		sums, err := agg.CategorySums(ctx, api.Expense, Period{Year: 2023, Month: time.May})
		if err != nil {
			t.Fatalf("CategorySums() error: %v", err)
		}
		if len(sums) != 0 {
			t.Errorf("sums: got %+v, want none", sums)
		}
	})

	t.Run("invalid period", func(t *testing.T) {
		if _, err := agg.Summarize(ctx, Period{Year: 2024, Month: 13}); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestNormalizeSums(t *testing.T) {
	in := []api.CategoryAmount{
		{Category: api.Transport, Amount: decimal.RequireFromString("5")},
		{Category: api.Other, Amount: decimal.Zero},
		{Category: api.Food, Amount: decimal.RequireFromString("5")},
		{Category: api.Housing, Amount: decimal.RequireFromString("50")},
	}
	got := normalizeSums(in)
	want := []api.Category{api.Housing, api.Food, api.Transport}
	if len(got) != len(want) {
		t.Fatalf("sums: got %+v", got)
	}
	for i, c := range want {
		if got[i].Category != c {
			t.Errorf("sum %d: got %s, want %s", i, got[i].Category, c)
		}
	}
}
