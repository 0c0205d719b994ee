// Package loader turns raw tabular sources (CSV files, Google Sheets ranges)
// into validated record sets. All sources reduce to a header plus string
// rows; parsing and derivation are shared.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesdash/internal/core"
)

const (
	columnDate        = "date"
	columnCustomer    = "customer_name"
	columnCategory    = "category_name"
	columnProductCode = "product_code"
	columnProductName = "product_name"
	columnUnitPrice   = "unit_price"
	columnQuantity    = "quantity"
	columnAmount      = "amount"
	columnDiscount    = "discount_rate"
)

var ErrEmptySource = errors.New("source has no data rows")

// Source yields a header row and data rows from some backing store.
type Source interface {
	Load(ctx context.Context) (header []string, rows [][]string, err error)
}

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type columns struct {
	date, customer, category, code, name, price, qty, amount, discount int
}

// resolveColumns maps header names to indices. Missing required columns are
// collected into a single SchemaError rather than reported one at a time.
func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.ToLower(h))] = i
	}

	var missing []string
	at := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	cols := columns{
		date:     at(columnDate),
		customer: at(columnCustomer),
		category: at(columnCategory),
		name:     at(columnProductName),
		price:    at(columnUnitPrice),
		qty:      at(columnQuantity),
		amount:   at(columnAmount),
		code:     -1,
		discount: -1,
	}
	if err := core.NewSchemaError(missing); err != nil {
		return columns{}, err
	}
	if i, ok := index[columnProductCode]; ok {
		cols.code = i
	}
	if i, ok := index[columnDiscount]; ok {
		cols.discount = i
	}
	return cols, nil
}

// Parse validates the header, coerces every row, and derives the analysis
// columns. The record set's discount flag reflects whether the source carried
// a discount column at all, not whether any discount is nonzero.
func Parse(header []string, rows [][]string) (*core.RecordSet, error) {
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}

	records := make([]core.Record, 0, len(rows))
	for i, raw := range rows {
		tx, err := parseRow(cols, raw)
		if err != nil {
			// Data rows start at line 2, after the header.
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, core.Derive(tx))
	}
	return core.NewRecordSet(records, cols.discount >= 0), nil
}

func parseRow(cols columns, raw []string) (core.Transaction, error) {
	field := func(i int) string {
		if i < 0 || i >= len(raw) {
			return ""
		}
		return strings.TrimSpace(raw[i])
	}

	date, err := parseDate(field(cols.date))
	if err != nil {
		return core.Transaction{}, err
	}
	price, err := parseFloat(field(cols.price), columnUnitPrice)
	if err != nil {
		return core.Transaction{}, err
	}
	qty, err := parseInt(field(cols.qty), columnQuantity)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := parseFloat(field(cols.amount), columnAmount)
	if err != nil {
		return core.Transaction{}, err
	}

	var discount float64
	if cols.discount >= 0 {
		if s := field(cols.discount); s != "" {
			discount, err = parseFloat(s, columnDiscount)
			if err != nil {
				return core.Transaction{}, err
			}
		}
	}

	tx := core.Transaction{
		Date:        date,
		Customer:    field(cols.customer),
		Category:    field(cols.category),
		ProductCode: field(cols.code),
		ProductName: field(cols.name),
		UnitPrice:   price,
		Quantity:    qty,
		Amount:      amount,
		Discount:    discount,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func parseFloat(s, column string) (float64, error) {
	// Sources exported from spreadsheets often carry grouped digits.
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", column, s)
	}
	return v, nil
}

func parseInt(s, column string) (int, error) {
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", column, s)
	}
	return v, nil
}
