package analytics

import (
	"fmt"
	"sort"

	"salesdash/internal/core"
)

// MonthlySales is one year+month rollup. YearMonth is the zero-padded
// "YYYY-MM" period key; sorting it lexically sorts chronologically.
type MonthlySales struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	YearMonth        string  `json:"year_month"`
	TotalAmount      float64 `json:"total_amount"`
	TotalQuantity    int     `json:"total_quantity"`
	TransactionCount int     `json:"transaction_count"`
}

// QuarterlySales is one year+quarter rollup.
type QuarterlySales struct {
	Year             int     `json:"year"`
	Quarter          int     `json:"quarter"`
	Label            string  `json:"label"` // "YYYY Q<n>"
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
}

// WeekdaySales is one weekday rollup, emitted in canonical Monday-first
// order regardless of input order.
type WeekdaySales struct {
	Weekday          string  `json:"weekday"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
}

// TimeSeries analyzes sales over calendar dimensions.
type TimeSeries struct {
	rs *core.RecordSet
}

func NewTimeSeries(rs *core.RecordSet) *TimeSeries {
	return &TimeSeries{rs: rs}
}

// Monthly groups by year+month, sorted chronologically.
func (a *TimeSeries) Monthly() []MonthlySales {
	order, byKey := group(a.rs.Records(), func(r core.Record) string { return r.YearMonth })

	rows := make([]MonthlySales, 0, len(order))
	for _, key := range order {
		records := byKey[key]
		rows = append(rows, MonthlySales{
			Year:             records[0].Year,
			Month:            records[0].Month,
			YearMonth:        key,
			TotalAmount:      sumAmount(records),
			TotalQuantity:    sumQuantity(records),
			TransactionCount: len(records),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].YearMonth < rows[j].YearMonth })
	return rows
}

// Quarterly groups by year+quarter, sorted chronologically.
func (a *TimeSeries) Quarterly() []QuarterlySales {
	order, byKey := group(a.rs.Records(), func(r core.Record) string {
		return fmt.Sprintf("%04d Q%d", r.Year, r.Quarter)
	})

	rows := make([]QuarterlySales, 0, len(order))
	for _, key := range order {
		records := byKey[key]
		rows = append(rows, QuarterlySales{
			Year:             records[0].Year,
			Quarter:          records[0].Quarter,
			Label:            key,
			TotalAmount:      sumAmount(records),
			TransactionCount: len(records),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Quarter < rows[j].Quarter
	})
	return rows
}

// WeekdayPattern groups by weekday name in fixed Monday-first order. Only
// weekdays with at least one transaction appear.
func (a *TimeSeries) WeekdayPattern() []WeekdaySales {
	order, byKey := group(a.rs.Records(), func(r core.Record) string { return r.Weekday })

	rows := make([]WeekdaySales, 0, len(order))
	for _, key := range order {
		records := byKey[key]
		rows = append(rows, WeekdaySales{
			Weekday:          key,
			TotalAmount:      sumAmount(records),
			TransactionCount: len(records),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return core.WeekdayIndex(rows[i].Weekday) < core.WeekdayIndex(rows[j].Weekday)
	})
	return rows
}
