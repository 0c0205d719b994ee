// Package core holds the transaction domain model: raw sales rows, the
// derived columns computed at load time, and the record set abstraction
// every analyzer consumes.
package core

import (
	"errors"
	"fmt"
	"time"
)

// RequiredColumns are the raw columns a source must provide. product_code is
// accepted but not required; rows without it still group correctly at the
// product level because the code only disambiguates identically named products.
var RequiredColumns = []string{
	"date",
	"customer_name",
	"category_name",
	"product_name",
	"unit_price",
	"quantity",
	"amount",
}

var (
	ErrNegativePrice    = errors.New("unit price must not be negative")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrDiscountRange    = errors.New("discount fraction must be between 0 and 1")
	ErrZeroDate         = errors.New("date must not be zero")
)

// Transaction is one raw sales row as delivered by a loader, already
// type-coerced. Amount is taken from the source as-is, never recomputed:
// by source convention it equals unit_price * quantity * (1 - discount).
type Transaction struct {
	Date        time.Time
	Customer    string
	Category    string
	ProductCode string
	ProductName string
	UnitPrice   float64
	Quantity    int
	Amount      float64
	Discount    float64 // fraction in [0,1]; 0 when the source has no discount column
}

// Validate checks the raw field invariants a loader must guarantee.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if t.UnitPrice < 0 {
		return ErrNegativePrice
	}
	if t.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if t.Discount < 0 || t.Discount > 1 {
		return ErrDiscountRange
	}
	return nil
}

// Record is a transaction enriched with the derived columns. Derived fields
// are pure functions of the raw row and are never mutated after Derive.
type Record struct {
	Transaction

	Year      int
	Month     int // 1-12
	Quarter   int // 1-4
	Weekday   string
	YearMonth string // "YYYY-MM", sorts lexically in chronological order

	DiscountPercent   float64
	PreDiscountAmount float64
	DiscountAmount    float64
	DiscountApplied   bool
}

// Weekdays is the canonical Monday-first weekday order used by every
// weekday-keyed result. Analyzers sort by position in this table, never
// alphabetically.
var Weekdays = [7]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// WeekdayIndex returns the Monday-first position of name, or -1 if name is
// not a weekday.
func WeekdayIndex(name string) int {
	for i, w := range Weekdays {
		if w == name {
			return i
		}
	}
	return -1
}

// Derive computes every derived column from the raw row. Calling it twice on
// the same transaction yields identical records.
func Derive(t Transaction) Record {
	r := Record{Transaction: t}
	r.Year = t.Date.Year()
	r.Month = int(t.Date.Month())
	r.Quarter = (r.Month-1)/3 + 1
	r.Weekday = t.Date.Weekday().String()
	r.YearMonth = fmt.Sprintf("%04d-%02d", r.Year, r.Month)
	r.DiscountPercent = t.Discount * 100
	r.PreDiscountAmount = t.UnitPrice * float64(t.Quantity)
	r.DiscountAmount = r.PreDiscountAmount * t.Discount
	r.DiscountApplied = t.Discount > 0
	return r
}
