// Package store holds the conversions shared by the bill store implementations.
// Amounts are persisted as integer fen and times as Unix milliseconds.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// ToCents converts an amount to integer minor units, rounding to two places.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer minor units back to an amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// ToMillis converts t to Unix milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts Unix milliseconds to a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}
