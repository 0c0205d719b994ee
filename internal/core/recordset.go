package core

import (
	"time"
)

// RecordSet is the immutable collection of records under analysis. Filtering
// produces a new set; the source set is never mutated. hasDiscount records
// whether the discount column existed in the source at all, which downstream
// analyzers treat as a distinct condition from "every discount is zero".
type RecordSet struct {
	records     []Record
	hasDiscount bool
}

// NewRecordSet builds a record set from already-derived records.
func NewRecordSet(records []Record, hasDiscount bool) *RecordSet {
	return &RecordSet{records: records, hasDiscount: hasDiscount}
}

// Records returns the underlying records. Callers must not mutate them.
func (rs *RecordSet) Records() []Record {
	return rs.records
}

func (rs *RecordSet) Len() int {
	return len(rs.records)
}

// HasDiscountData reports whether the source carried a discount column.
// When false, discount-rate distribution and category-discount analyses are
// unavailable rather than zero.
func (rs *RecordSet) HasDiscountData() bool {
	return rs.hasDiscount
}

// DateRange returns the earliest and latest transaction dates. Both zero
// when the set is empty.
func (rs *RecordSet) DateRange() (time.Time, time.Time) {
	if len(rs.records) == 0 {
		return time.Time{}, time.Time{}
	}
	min, max := rs.records[0].Date, rs.records[0].Date
	for _, r := range rs.records[1:] {
		if r.Date.Before(min) {
			min = r.Date
		}
		if r.Date.After(max) {
			max = r.Date
		}
	}
	return min, max
}

// Filter describes the view an analysis request operates on. Zero From/To
// leave that bound open; date bounds are inclusive. Empty name sets mean no
// filtering on that dimension.
type Filter struct {
	From       time.Time
	To         time.Time
	Categories []string
	Customers  []string
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Categories) == 0 && len(f.Customers) == 0
}

// Filter returns a new record set holding the records matching f. Applying
// the same filter to its own result yields an identical set. The discount
// availability flag carries over unchanged.
func (rs *RecordSet) Filter(f Filter) *RecordSet {
	categories := toSet(f.Categories)
	customers := toSet(f.Customers)

	matched := make([]Record, 0, len(rs.records))
	for _, r := range rs.records {
		if !f.From.IsZero() && r.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.Date.After(f.To) {
			continue
		}
		if categories != nil && !categories[r.Category] {
			continue
		}
		if customers != nil && !customers[r.Customer] {
			continue
		}
		matched = append(matched, r)
	}
	return &RecordSet{records: matched, hasDiscount: rs.hasDiscount}
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
