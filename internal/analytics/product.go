package analytics

import (
	"math"
	"sort"

	"salesdash/internal/core"
)

// CategorySales is one product-category rollup, ordered by total sales
// descending. SharePercent is computed against the analyzed record set's own
// grand total, never a cached global one.
type CategorySales struct {
	Category         string  `json:"category"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	TotalQuantity    int     `json:"total_quantity"`
	SharePercent     float64 `json:"share_percent"`
}

// ProductSales is one ranked product rollup.
type ProductSales struct {
	Rank             int     `json:"rank"`
	ProductCode      string  `json:"product_code"`
	ProductName      string  `json:"product_name"`
	Category         string  `json:"category"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	TotalQuantity    int     `json:"total_quantity"`
}

// CategoryProductRank is one row of the per-category top-N table. The outer
// ordering follows category sales descending; RankInCategory restarts at 1
// for each category.
type CategoryProductRank struct {
	Category         string  `json:"category"`
	RankInCategory   int     `json:"rank_in_category"`
	ProductCode      string  `json:"product_code"`
	ProductName      string  `json:"product_name"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	TotalQuantity    int     `json:"total_quantity"`
}

// PriceBand is one unit-price distribution row. All declared bands appear
// even when empty.
type PriceBand struct {
	Label            string  `json:"label"`
	Low              float64 `json:"low"`
	High             float64 `json:"high"` // +Inf on the open-ended band
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
}

// PriceBands are the fixed unit-price intervals of the distribution. Values
// on an interior edge belong to the upper band.
var PriceBands = []Band{
	{Label: "under 50,000", Low: 0, High: 50000},
	{Label: "50,000-100,000", Low: 50000, High: 100000},
	{Label: "100,000-200,000", Low: 100000, High: 200000},
	{Label: "200,000-500,000", Low: 200000, High: 500000},
	{Label: "500,000-1,000,000", Low: 500000, High: 1000000},
	{Label: "1,000,000 and over", Low: 1000000, High: math.Inf(1)},
}

// Products analyzes sales by category and product.
type Products struct {
	rs *core.RecordSet
}

func NewProducts(rs *core.RecordSet) *Products {
	return &Products{rs: rs}
}

// CategorySales rolls up by category, descending by total amount.
func (a *Products) CategorySales() []CategorySales {
	order, byKey := group(a.rs.Records(), func(r core.Record) string { return r.Category })

	rows := make([]CategorySales, 0, len(order))
	var grand float64
	for _, key := range order {
		records := byKey[key]
		row := CategorySales{
			Category:         key,
			TotalAmount:      sumAmount(records),
			TransactionCount: len(records),
			TotalQuantity:    sumQuantity(records),
		}
		grand += row.TotalAmount
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalAmount > rows[j].TotalAmount })
	for i := range rows {
		rows[i].SharePercent = share(rows[i].TotalAmount, grand)
	}
	return rows
}

// productKey groups by code+name+category so identically named products in
// different categories stay distinct.
func productKey(r core.Record) string {
	return r.ProductCode + "\x00" + r.ProductName + "\x00" + r.Category
}

func (a *Products) productRollup() []ProductSales {
	order, byKey := group(a.rs.Records(), productKey)

	rows := make([]ProductSales, 0, len(order))
	for _, key := range order {
		records := byKey[key]
		rows = append(rows, ProductSales{
			ProductCode:      records[0].ProductCode,
			ProductName:      records[0].ProductName,
			Category:         records[0].Category,
			TotalAmount:      sumAmount(records),
			TransactionCount: len(records),
			TotalQuantity:    sumQuantity(records),
		})
	}
	return rows
}

// TopProducts returns the n best-selling products by total amount with
// 1-based contiguous ranks. Ties keep their grouping order. When fewer than
// n products exist, all are returned ranked.
func (a *Products) TopProducts(n int) ([]ProductSales, error) {
	if n <= 0 {
		return nil, ErrInvalidTopN
	}

	rows := a.productRollup()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalAmount > rows[j].TotalAmount })
	if len(rows) > n {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// TopProductsByCategory returns each category's top n products. Categories
// appear in category-sales-descending order; within a category products are
// ranked 1..k by total amount.
func (a *Products) TopProductsByCategory(n int) ([]CategoryProductRank, error) {
	if n <= 0 {
		return nil, ErrInvalidTopN
	}

	products := a.productRollup()
	byCategory := make(map[string][]ProductSales)
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	var rows []CategoryProductRank
	for _, cat := range a.CategorySales() {
		inCategory := byCategory[cat.Category]
		sort.SliceStable(inCategory, func(i, j int) bool { return inCategory[i].TotalAmount > inCategory[j].TotalAmount })
		if len(inCategory) > n {
			inCategory = inCategory[:n]
		}
		for i, p := range inCategory {
			rows = append(rows, CategoryProductRank{
				Category:         p.Category,
				RankInCategory:   i + 1,
				ProductCode:      p.ProductCode,
				ProductName:      p.ProductName,
				TotalAmount:      p.TotalAmount,
				TransactionCount: p.TransactionCount,
				TotalQuantity:    p.TotalQuantity,
			})
		}
	}
	return rows, nil
}

// PriceDistribution buckets transactions by unit price across the fixed
// bands. Every band is present in the result, empty ones with zero sums.
func (a *Products) PriceDistribution() []PriceBand {
	buckets := bucketize(a.rs.Records(), PriceBands, func(r core.Record) float64 { return r.UnitPrice })

	rows := make([]PriceBand, len(PriceBands))
	for i, band := range PriceBands {
		rows[i] = PriceBand{
			Label:            band.Label,
			Low:              band.Low,
			High:             band.High,
			TotalAmount:      sumAmount(buckets[i]),
			TransactionCount: len(buckets[i]),
		}
	}
	return rows
}
