package analytics

import (
	"sort"

	"salesdash/internal/core"
)

// DiscountGroup summarizes one side of the discounted/normal split.
type DiscountGroup struct {
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
	SharePercent     float64 `json:"share_percent"`
}

// DiscountApplication is the discounted-vs-normal comparison. A source
// without a discount column lands everything in Normal, following the
// discount-defaults-to-zero convention.
type DiscountApplication struct {
	Discounted DiscountGroup `json:"discounted"`
	Normal     DiscountGroup `json:"normal"`
}

// DiscountRateBand is one discount-rate distribution row. The distribution
// covers only discounted transactions; all declared bands are present.
type DiscountRateBand struct {
	Label               string  `json:"label"`
	Low                 float64 `json:"low"`  // fraction
	High                float64 `json:"high"` // fraction
	TotalAmount         float64 `json:"total_amount"`
	TransactionCount    int     `json:"transaction_count"`
	TotalDiscountAmount float64 `json:"total_discount_amount"`
}

// CategoryDiscount carries two deliberately separate per-category metrics:
// AverageRatePercent is the plain mean of discount fractions (how deep
// discounts run when applied, unweighted), while BurdenPercent is
// discount_amount / (amount + discount_amount) (how much revenue the
// category actually gives up). They answer different questions and must not
// be conflated.
type CategoryDiscount struct {
	Category            string  `json:"category"`
	AverageRatePercent  float64 `json:"average_rate_percent"`
	TotalAmount         float64 `json:"total_amount"`
	TotalDiscountAmount float64 `json:"total_discount_amount"`
	BurdenPercent       float64 `json:"burden_percent"`
}

// DiscountSummary is the headline discount view.
type DiscountSummary struct {
	TotalDiscountAmount    float64 `json:"total_discount_amount"`
	DiscountedCount        int     `json:"discounted_count"`
	DiscountedSharePercent float64 `json:"discounted_share_percent"` // of transaction count
	AverageRatePercent     float64 `json:"average_rate_percent"`
}

// RateBands are the fixed discount-fraction intervals. The final interval is
// closed so a full 100% discount still lands in a band.
var RateBands = []Band{
	{Label: "under 10%", Low: 0, High: 0.1},
	{Label: "10-20%", Low: 0.1, High: 0.2},
	{Label: "20-30%", Low: 0.2, High: 0.3},
	{Label: "30-40%", Low: 0.3, High: 0.4},
	{Label: "40-50%", Low: 0.4, High: 0.5},
	{Label: "50% and over", Low: 0.5, High: 1.0},
}

// Discounts analyzes discount application across the record set.
type Discounts struct {
	rs *core.RecordSet
}

func NewDiscounts(rs *core.RecordSet) *Discounts {
	return &Discounts{rs: rs}
}

func (a *Discounts) discounted() []core.Record {
	var out []core.Record
	for _, r := range a.rs.Records() {
		if r.DiscountApplied {
			out = append(out, r)
		}
	}
	return out
}

// Application splits records into discounted and normal groups with each
// side's share of total sales.
func (a *Discounts) Application() DiscountApplication {
	var app DiscountApplication
	for _, r := range a.rs.Records() {
		if r.DiscountApplied {
			app.Discounted.TotalAmount += r.Amount
			app.Discounted.TransactionCount++
		} else {
			app.Normal.TotalAmount += r.Amount
			app.Normal.TransactionCount++
		}
	}
	grand := app.Discounted.TotalAmount + app.Normal.TotalAmount
	app.Discounted.SharePercent = share(app.Discounted.TotalAmount, grand)
	app.Normal.SharePercent = share(app.Normal.TotalAmount, grand)
	return app
}

// RateDistribution buckets discounted transactions across the fixed rate
// bands. Returns ErrNoDiscountData when the source has no discount column or
// no transaction carries a discount; that is a signaled empty state, not a
// zero-filled table.
func (a *Discounts) RateDistribution() ([]DiscountRateBand, error) {
	if !a.rs.HasDiscountData() {
		return nil, ErrNoDiscountData
	}
	discounted := a.discounted()
	if len(discounted) == 0 {
		return nil, ErrNoDiscountData
	}

	buckets := bucketize(discounted, RateBands, func(r core.Record) float64 { return r.Discount })
	rows := make([]DiscountRateBand, len(RateBands))
	for i, band := range RateBands {
		rows[i] = DiscountRateBand{
			Label:               band.Label,
			Low:                 band.Low,
			High:                band.High,
			TotalAmount:         sumAmount(buckets[i]),
			TransactionCount:    len(buckets[i]),
			TotalDiscountAmount: sumDiscountAmount(buckets[i]),
		}
	}
	return rows, nil
}

// ByCategory computes both per-category discount metrics, sorted by average
// rate descending. Unavailable when the source has no discount column.
func (a *Discounts) ByCategory() ([]CategoryDiscount, error) {
	if !a.rs.HasDiscountData() {
		return nil, ErrNoDiscountData
	}

	order, byKey := group(a.rs.Records(), func(r core.Record) string { return r.Category })
	rows := make([]CategoryDiscount, 0, len(order))
	for _, key := range order {
		records := byKey[key]
		var rateSum float64
		for _, r := range records {
			rateSum += r.Discount
		}
		amount := sumAmount(records)
		discountAmount := sumDiscountAmount(records)
		rows = append(rows, CategoryDiscount{
			Category:            key,
			AverageRatePercent:  Round1(ratio(rateSum, float64(len(records))) * 100),
			TotalAmount:         amount,
			TotalDiscountAmount: discountAmount,
			BurdenPercent:       share(discountAmount, amount+discountAmount),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AverageRatePercent > rows[j].AverageRatePercent })
	return rows, nil
}

// Summary reports totals over the whole set. Valid even without discount
// data, in which case everything is zero.
func (a *Discounts) Summary() DiscountSummary {
	var s DiscountSummary
	var rateSum float64
	for _, r := range a.rs.Records() {
		s.TotalDiscountAmount += r.DiscountAmount
		if r.DiscountApplied {
			s.DiscountedCount++
			rateSum += r.Discount
		}
	}
	s.DiscountedSharePercent = share(float64(s.DiscountedCount), float64(a.rs.Len()))
	s.AverageRatePercent = Round1(ratio(rateSum, float64(s.DiscountedCount)) * 100)
	return s
}
