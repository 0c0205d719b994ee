package analytics

import (
	"salesdash/internal/core"
)

// KPISummary holds the headline metrics computed over the full filtered
// record set, independent of any grouping. All values are plain numbers;
// formatting happens only in Cards.
type KPISummary struct {
	TotalSales          float64 `json:"total_sales"`
	TransactionCount    int     `json:"transaction_count"`
	AverageTransaction  float64 `json:"average_transaction"`
	TotalDiscount       float64 `json:"total_discount"`
	CustomerCount       int     `json:"customer_count"`
	AverageDiscountRate float64 `json:"average_discount_rate"` // percent over discounted rows, 0 when none
	TotalQuantity       int     `json:"total_quantity"`
	ProductCount        int     `json:"product_count"`
}

// Summarize computes every KPI in one pass. Ratios over empty denominators
// collapse to 0 so no NaN ever leaves this package.
func Summarize(rs *core.RecordSet) KPISummary {
	var s KPISummary
	customers := make(map[string]struct{})
	products := make(map[string]struct{})
	var rateSum float64
	var discountedCount int

	for _, r := range rs.Records() {
		s.TotalSales += r.Amount
		s.TotalDiscount += r.DiscountAmount
		s.TotalQuantity += r.Quantity
		customers[r.Customer] = struct{}{}
		products[r.ProductName] = struct{}{}
		if r.DiscountApplied {
			discountedCount++
			rateSum += r.Discount
		}
	}

	s.TransactionCount = rs.Len()
	s.AverageTransaction = ratio(s.TotalSales, float64(s.TransactionCount))
	s.CustomerCount = len(customers)
	s.ProductCount = len(products)
	s.AverageDiscountRate = Round1(ratio(rateSum, float64(discountedCount)) * 100)
	return s
}

// Card pairs a KPI value with its label and display string for presentation
// surfaces. The numeric value stays available next to the formatted one.
type Card struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// Cards lays the summary out as the four main and four secondary dashboard
// cards. currency is the prefix symbol for monetary values.
func (s KPISummary) Cards(currency string) (main, sub []Card) {
	main = []Card{
		{Label: "Total sales", Value: s.TotalSales, Formatted: FormatCurrency(s.TotalSales, currency)},
		{Label: "Transactions", Value: float64(s.TransactionCount), Formatted: FormatCount(s.TransactionCount)},
		{Label: "Average transaction", Value: s.AverageTransaction, Formatted: FormatCurrency(s.AverageTransaction, currency)},
		{Label: "Total discount", Value: s.TotalDiscount, Formatted: FormatCurrency(s.TotalDiscount, currency)},
	}
	sub = []Card{
		{Label: "Customers", Value: float64(s.CustomerCount), Formatted: FormatCount(s.CustomerCount)},
		{Label: "Average discount rate", Value: s.AverageDiscountRate, Formatted: FormatPercent(s.AverageDiscountRate)},
		{Label: "Units sold", Value: float64(s.TotalQuantity), Formatted: FormatCount(s.TotalQuantity)},
		{Label: "Products", Value: float64(s.ProductCount), Formatted: FormatCount(s.ProductCount)},
	}
	return main, sub
}
