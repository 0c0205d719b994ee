// Package analytics turns a record set into the aggregate tables and KPI
// bundle consumed by the dashboard API and the report generator. Every
// function here is a pure transform of its input: no shared state, no
// caching, safe to call concurrently on the same record set.
package analytics

import (
	"errors"
	"math"

	"salesdash/internal/core"
)

var (
	// ErrInvalidTopN rejects non-positive top-N parameters instead of
	// silently clamping them, which would mask caller bugs.
	ErrInvalidTopN = errors.New("top n must be positive")

	// ErrNoDiscountData signals that a discount analysis has no applicable
	// rows: either the source had no discount column, or no transaction
	// carries a discount. It marks an expected empty state, not a failure.
	ErrNoDiscountData = errors.New("no discount data in record set")
)

// group collects records by key, returning distinct keys in first-seen order
// next to the index. Ordering of the final result is always the caller's
// responsibility; first-seen order only makes grouping deterministic.
func group(records []core.Record, key func(core.Record) string) ([]string, map[string][]core.Record) {
	order := make([]string, 0)
	byKey := make(map[string][]core.Record)
	for _, r := range records {
		k := key(r)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}
	return order, byKey
}

func sumAmount(records []core.Record) float64 {
	var total float64
	for _, r := range records {
		total += r.Amount
	}
	return total
}

func sumQuantity(records []core.Record) int {
	var total int
	for _, r := range records {
		total += r.Quantity
	}
	return total
}

func sumDiscountAmount(records []core.Record) float64 {
	var total float64
	for _, r := range records {
		total += r.DiscountAmount
	}
	return total
}

// Round1 rounds to one decimal place, half away from zero. All percentage
// fields across the analyzers use this one rounding mode.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// share returns part's percentage of total rounded to one decimal, or 0 when
// the total is zero.
func share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return Round1(part / total * 100)
}

// ratio guards plain division the same way.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Band is one interval of a fixed distribution. Intervals are half-open
// [Low, High) except the last band of a set, which is closed; High may be
// +Inf. Every declared band appears in a distribution result even when no
// record falls into it.
type Band struct {
	Label string
	Low   float64
	High  float64
}

// bandIndex returns the index of the band v falls into, or -1 when v lies
// outside all bands. last marks the closed final interval.
func bandIndex(bands []Band, v float64) int {
	for i, b := range bands {
		if i == len(bands)-1 {
			if v >= b.Low && v <= b.High {
				return i
			}
			return -1
		}
		if v >= b.Low && v < b.High {
			return i
		}
	}
	return -1
}

// bucketize partitions records across bands by the given value. The result
// has exactly one slice per band, in band order, empty slices included.
func bucketize(records []core.Record, bands []Band, value func(core.Record) float64) [][]core.Record {
	buckets := make([][]core.Record, len(bands))
	for _, r := range records {
		if i := bandIndex(bands, value(r)); i >= 0 {
			buckets[i] = append(buckets[i], r)
		}
	}
	return buckets
}
