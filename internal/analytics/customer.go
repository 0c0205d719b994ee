package analytics

import (
	"sort"

	"salesdash/internal/core"
)

// CustomerSales is one customer rollup, ordered by total sales descending.
type CustomerSales struct {
	Customer         string  `json:"customer"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	TotalQuantity    int     `json:"total_quantity"`
	SharePercent     float64 `json:"share_percent"`
}

// RankedCustomer adds a 1-based rank on top of the sales rollup.
type RankedCustomer struct {
	Rank int `json:"rank"`
	CustomerSales
}

// CustomerDetail is the per-customer detail table row. The average cannot
// divide by zero: a customer with no transactions never appears as a key.
type CustomerDetail struct {
	Rank                     int     `json:"rank"`
	Customer                 string  `json:"customer"`
	TotalAmount              float64 `json:"total_amount"`
	TransactionCount         int     `json:"transaction_count"`
	AverageTransactionAmount float64 `json:"average_transaction_amount"`
	SharePercent             float64 `json:"share_percent"`
}

// Concentration reports how much of total sales the biggest customers carry.
// When fewer than N customers exist the share sums over those present.
type Concentration struct {
	Top5Share      float64 `json:"top_5_share"`
	Top10Share     float64 `json:"top_10_share"`
	Top20Share     float64 `json:"top_20_share"`
	TotalCustomers int     `json:"total_customers"`
}

// Customers analyzes sales by customer.
type Customers struct {
	rs *core.RecordSet
}

func NewCustomers(rs *core.RecordSet) *Customers {
	return &Customers{rs: rs}
}

// Sales rolls up by customer, descending by total amount.
func (a *Customers) Sales() []CustomerSales {
	order, byKey := group(a.rs.Records(), func(r core.Record) string { return r.Customer })

	rows := make([]CustomerSales, 0, len(order))
	var grand float64
	for _, key := range order {
		records := byKey[key]
		row := CustomerSales{
			Customer:         key,
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

// Top returns the n biggest customers with contiguous 1-based ranks.
func (a *Customers) Top(n int) ([]RankedCustomer, error) {
	if n <= 0 {
		return nil, ErrInvalidTopN
	}

	sales := a.Sales()
	if len(sales) > n {
		sales = sales[:n]
	}
	rows := make([]RankedCustomer, len(sales))
	for i, s := range sales {
		rows[i] = RankedCustomer{Rank: i + 1, CustomerSales: s}
	}
	return rows, nil
}

// Detail returns every customer ranked by sales with the per-transaction
// average.
func (a *Customers) Detail() []CustomerDetail {
	sales := a.Sales()
	rows := make([]CustomerDetail, len(sales))
	for i, s := range sales {
		rows[i] = CustomerDetail{
			Rank:                     i + 1,
			Customer:                 s.Customer,
			TotalAmount:              s.TotalAmount,
			TransactionCount:         s.TransactionCount,
			AverageTransactionAmount: ratio(s.TotalAmount, float64(s.TransactionCount)),
			SharePercent:             s.SharePercent,
		}
	}
	return rows
}

// Concentration computes the top-5/10/20 sales shares.
func (a *Customers) Concentration() Concentration {
	sales := a.Sales()
	var grand float64
	for _, s := range sales {
		grand += s.TotalAmount
	}

	topShare := func(n int) float64 {
		if n > len(sales) {
			n = len(sales)
		}
		var sum float64
		for _, s := range sales[:n] {
			sum += s.TotalAmount
		}
		return share(sum, grand)
	}

	return Concentration{
		Top5Share:      topShare(5),
		Top10Share:     topShare(10),
		Top20Share:     topShare(20),
		TotalCustomers: len(sales),
	}
}
