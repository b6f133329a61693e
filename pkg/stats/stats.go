// Package stats aggregates stored bills over a calendar month or year.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monayhq/monay/pkg/api"
)

// Period is a calendar month, or a whole year when Month is zero.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// YearOf returns the year containing t.
func YearOf(t time.Time) Period {
	return Period{Year: t.Year()}
}

// Validate rejects months outside 0..12 and years before 1970.
func (p Period) Validate() error {
	if p.Year < 1970 || p.Year > 9999 {
		return fmt.Errorf("invalid year %d", p.Year)
	}
	if p.Month < 0 || p.Month > 12 {
		return fmt.Errorf("invalid month %d", p.Month)
	}
	return nil
}

// IsYear reports whether p covers a whole year.
func (p Period) IsYear() bool {
	return p.Month == 0
}

// Bounds returns the first and last millisecond of p in loc, both inclusive.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	if p.IsYear() {
		start := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0).Add(-time.Millisecond)
	}
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Millisecond)
}

// Next returns the following month or year.
func (p Period) Next() Period {
	if p.IsYear() {
		return Period{Year: p.Year + 1}
	}
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Previous returns the preceding month or year.
func (p Period) Previous() Period {
	if p.IsYear() {
		return Period{Year: p.Year - 1}
	}
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) String() string {
	if p.IsYear() {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Summary is the aggregate of one period.
type Summary struct {
	Period Period    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	// Categories holds the per-category breakdown for each direction.
	Categories map[api.Direction][]api.CategoryAmount `json:"categories"`
	// Totals holds the sum of each direction; absent directions are zero.
	Totals map[api.Direction]decimal.Decimal `json:"totals"`
}

// Total returns the sum of one direction.
func (s *Summary) Total(dir api.Direction) decimal.Decimal {
	return s.Totals[dir]
}

// Net returns income minus expense.
func (s *Summary) Net() decimal.Decimal {
	return s.Total(api.Income).Sub(s.Total(api.Expense))
}

// Aggregator runs summary queries against a store.
type Aggregator struct {
	store api.BillStore
	loc   *time.Location
}

// New creates an aggregator. Period bounds are computed in loc.
func New(store api.BillStore, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{store: store, loc: loc}
}

// CategorySums returns the per-category sums of one direction in p,
// largest first, ties by category name.
func (a *Aggregator) CategorySums(ctx context.Context, dir api.Direction, p Period) ([]api.CategoryAmount, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start, end := p.Bounds(a.loc)
	sums, err := a.store.SumByCategory(ctx, dir, start, end)
	if err != nil {
		return nil, fmt.Errorf("summing %s by category: %w", dir, err)
	}
	return normalizeSums(sums), nil
}

// Summarize returns the full summary of p.
func (a *Aggregator) Summarize(ctx context.Context, p Period) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start, end := p.Bounds(a.loc)

	s := &Summary{
		Period:     p,
		Start:      start,
		End:        end,
		Categories: make(map[api.Direction][]api.CategoryAmount, len(api.Directions)),
		Totals:     make(map[api.Direction]decimal.Decimal, len(api.Directions)),
	}

	for _, dir := range api.Directions {
		sums, err := a.store.SumByCategory(ctx, dir, start, end)
		if err != nil {
			return nil, fmt.Errorf("summing %s by category: %w", dir, err)
		}
		s.Categories[dir] = normalizeSums(sums)
		s.Totals[dir] = decimal.Zero
	}

	totals, err := a.store.SumByDirection(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("summing by direction: %w", err)
	}
	for _, t := range totals {
		s.Totals[t.Direction] = t.Amount
	}
	return s, nil
}

// normalizeSums drops zero entries and enforces a deterministic order
// regardless of the store's tie handling.
func normalizeSums(in []api.CategoryAmount) []api.CategoryAmount {
	out := make([]api.CategoryAmount, 0, len(in))
	for _, c := range in {
		if c.Amount.IsPositive() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
