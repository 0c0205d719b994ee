// Package report assembles the full analysis of a record set and renders it
// as a standalone HTML document.
package report

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/analytics"
	"salesdash/internal/core"
)

var ErrEmptyRecordSet = errors.New("record set has no records")

// Options control report presentation.
type Options struct {
	Title    string
	Currency string
}

// TimeSeriesSection holds the calendar breakdowns.
type TimeSeriesSection struct {
	Monthly   []analytics.MonthlySales
	Quarterly []analytics.QuarterlySales
	Weekdays  []analytics.WeekdaySales
}

// ProductSection holds the category and product breakdowns.
type ProductSection struct {
	Categories        []analytics.CategorySales
	TopProducts       []analytics.ProductSales
	TopByCategory     []analytics.CategoryProductRank
	PriceDistribution []analytics.PriceBand
}

// CustomerSection holds the customer breakdowns.
type CustomerSection struct {
	Top           []analytics.RankedCustomer
	Detail        []analytics.CustomerDetail
	Concentration analytics.Concentration
}

// DiscountSection holds the discount breakdowns. Available is false when the
// source has no discount column; the rendered report then shows a notice
// instead of empty tables.
type DiscountSection struct {
	Available        bool
	Application      analytics.DiscountApplication
	RateDistribution []analytics.DiscountRateBand
	ByCategory       []analytics.CategoryDiscount
	Summary          analytics.DiscountSummary
}

// Data is everything the template needs for one report.
type Data struct {
	Title       string
	Currency    string
	GeneratedAt time.Time
	PeriodFrom  time.Time
	PeriodTo    time.Time
	RowCount    int

	KPIs     analytics.KPISummary
	MainKPIs []analytics.Card
	SubKPIs  []analytics.Card

	TimeSeries TimeSeriesSection
	Products   ProductSection
	Customers  CustomerSection
	Discounts  DiscountSection
}

const (
	topProductCount       = 10
	topProductPerCategory = 5
	topCustomerCount      = 10
)

// Build runs every analyzer over the record set. The four dimensional
// sections are independent, so they run concurrently.
func Build(ctx context.Context, rs *core.RecordSet, opts Options) (*Data, error) {
	if rs.Len() == 0 {
		return nil, ErrEmptyRecordSet
	}

	from, to := rs.DateRange()
	data := &Data{
		Title:       opts.Title,
		Currency:    opts.Currency,
		GeneratedAt: time.Now(),
		PeriodFrom:  from,
		PeriodTo:    to,
		RowCount:    rs.Len(),
	}

	data.KPIs = analytics.Summarize(rs)
	data.MainKPIs, data.SubKPIs = data.KPIs.Cards(opts.Currency)

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		ts := analytics.NewTimeSeries(rs)
		data.TimeSeries = TimeSeriesSection{
			Monthly:   ts.Monthly(),
			Quarterly: ts.Quarterly(),
			Weekdays:  ts.WeekdayPattern(),
		}
		return nil
	})

	g.Go(func() error {
		products := analytics.NewProducts(rs)
		top, err := products.TopProducts(topProductCount)
		if err != nil {
			return err
		}
		perCategory, err := products.TopProductsByCategory(topProductPerCategory)
		if err != nil {
			return err
		}
		data.Products = ProductSection{
			Categories:        products.CategorySales(),
			TopProducts:       top,
			TopByCategory:     perCategory,
			PriceDistribution: products.PriceDistribution(),
		}
		return nil
	})

	g.Go(func() error {
		customers := analytics.NewCustomers(rs)
		top, err := customers.Top(topCustomerCount)
		if err != nil {
			return err
		}
		data.Customers = CustomerSection{
			Top:           top,
			Detail:        customers.Detail(),
			Concentration: customers.Concentration(),
		}
		return nil
	})

	g.Go(func() error {
		discounts := analytics.NewDiscounts(rs)
		section := DiscountSection{
			Application: discounts.Application(),
			Summary:     discounts.Summary(),
		}

		rates, err := discounts.RateDistribution()
		switch {
		case errors.Is(err, analytics.ErrNoDiscountData):
			data.Discounts = section
			return nil
		case err != nil:
			return err
		}

		byCategory, err := discounts.ByCategory()
		if err != nil {
			return err
		}
		section.Available = true
		section.RateDistribution = rates
		section.ByCategory = byCategory
		data.Discounts = section
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}
