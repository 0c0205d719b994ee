package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"salesdash/internal/core"
)

func testRecordSet(t *testing.T, hasDiscount bool) *core.RecordSet {
	t.Helper()
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad date %q: %v", s, err)
		}
		return d
	}
	records := []core.Record{
		core.Derive(core.Transaction{
			Date: day("2024-01-15"), Customer: "Acme", Category: "Electronics",
			ProductName: "Laptop", UnitPrice: 1200000, Quantity: 1, Amount: 1080000, Discount: 0.1,
		}),
		core.Derive(core.Transaction{
			Date: day("2024-02-20"), Customer: "Bolt", Category: "Furniture",
			ProductName: "Desk", UnitPrice: 250000, Quantity: 2, Amount: 500000,
		}),
		core.Derive(core.Transaction{
			Date: day("2024-03-05"), Customer: "Acme", Category: "Electronics",
			ProductName: "Mouse", UnitPrice: 30000, Quantity: 5, Amount: 150000,
		}),
	}
	return core.NewRecordSet(records, hasDiscount)
}

func TestBuild(t *testing.T) {
	data, err := Build(context.Background(), testRecordSet(t, true), Options{
		Title:    "Q1 Review",
		Currency: "₩",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if data.Title != "Q1 Review" || data.RowCount != 3 {
		t.Errorf("header = %q / %d rows", data.Title, data.RowCount)
	}
	if got := data.PeriodFrom.Format("2006-01-02"); got != "2024-01-15" {
		t.Errorf("PeriodFrom = %s", got)
	}
	if len(data.MainKPIs) != 4 || len(data.SubKPIs) != 4 {
		t.Errorf("KPI cards = %d/%d", len(data.MainKPIs), len(data.SubKPIs))
	}
	if len(data.TimeSeries.Monthly) != 3 {
		t.Errorf("monthly rows = %d, want 3", len(data.TimeSeries.Monthly))
	}
	if len(data.Products.Categories) != 2 {
		t.Errorf("categories = %d, want 2", len(data.Products.Categories))
	}
	if len(data.Customers.Top) != 2 {
		t.Errorf("top customers = %d, want 2", len(data.Customers.Top))
	}
	if !data.Discounts.Available {
		t.Error("discount section should be available")
	}
	if len(data.Discounts.RateDistribution) == 0 {
		t.Error("rate distribution missing")
	}
}

func TestBuildWithoutDiscountData(t *testing.T) {
	data, err := Build(context.Background(), testRecordSet(t, false), Options{Title: "t", Currency: "$"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if data.Discounts.Available {
		t.Error("discount section should be unavailable")
	}
	// The split itself still renders; a source without the column has
	// everything in the normal group.
	if data.Discounts.Application.Normal.TransactionCount == 0 {
		t.Error("normal group should carry all transactions")
	}
}

func TestBuildEmptySet(t *testing.T) {
	_, err := Build(context.Background(), core.NewRecordSet(nil, false), Options{})
	if !errors.Is(err, ErrEmptyRecordSet) {
		t.Fatalf("err = %v, want ErrEmptyRecordSet", err)
	}
}

func TestRender(t *testing.T) {
	data, err := Build(context.Background(), testRecordSet(t, true), Options{
		Title:    "Render Test",
		Currency: "$",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Render Test",
		"Acme",
		"Laptop",
		"Electronics",
		"Rate Distribution",
		"$1,080,000",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderNoDiscountNotice(t *testing.T) {
	data, err := Build(context.Background(), testRecordSet(t, false), Options{Title: "t", Currency: "$"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "no discount information") {
		t.Error("missing no-discount notice")
	}
	if strings.Contains(buf.String(), "Rate Distribution") {
		t.Error("rate distribution rendered without discount data")
	}
}

func TestSave(t *testing.T) {
	data, err := Build(context.Background(), testRecordSet(t, true), Options{Title: "t", Currency: "$"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := Save(dir, data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "sales_report_") || !strings.HasSuffix(base, ".html") {
		t.Errorf("unexpected report name %q", base)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat report: %v", err)
	}
	if info.Size() == 0 {
		t.Error("report file is empty")
	}
}
