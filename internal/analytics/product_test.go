package analytics

import (
	"errors"
	"testing"
)

func productFixture(t *testing.T) *Products {
	t.Helper()
	return NewProducts(makeSet(t, false, []row{
		{"2024-01-01", "A", "Electronics", "E1", "Laptop", 1200000, 1, 0},
		{"2024-01-02", "B", "Electronics", "E2", "Mouse", 30000, 4, 0},
		{"2024-01-03", "C", "Furniture", "F1", "Desk", 250000, 2, 0},
		{"2024-01-04", "A", "Furniture", "F2", "Chair", 90000, 3, 0},
		{"2024-01-05", "B", "Electronics", "E1", "Laptop", 1200000, 1, 0},
		{"2024-01-06", "C", "Stationery", "S1", "Notebook", 3000, 10, 0},
	}))
}

func TestCategorySalesOrderAndShares(t *testing.T) {
	rows := productFixture(t).CategorySales()

	if len(rows) != 3 {
		t.Fatalf("got %d categories, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].TotalAmount > rows[i-1].TotalAmount {
			t.Fatalf("categories not descending at index %d", i)
		}
	}
	if rows[0].Category != "Electronics" {
		t.Errorf("top category = %q, want Electronics", rows[0].Category)
	}

	var shareSum float64
	for _, r := range rows {
		shareSum += r.SharePercent
	}
	if shareSum < 99.5 || shareSum > 100.5 {
		t.Errorf("shares sum to %v, want ~100", shareSum)
	}
}

func TestTopProducts(t *testing.T) {
	rows, err := productFixture(t).TopProducts(3)
	if err != nil {
		t.Fatalf("TopProducts: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d products, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Rank != i+1 {
			t.Errorf("rows[%d].Rank = %d, want %d", i, r.Rank, i+1)
		}
	}
	if rows[0].ProductName != "Laptop" {
		t.Errorf("top product = %q, want Laptop", rows[0].ProductName)
	}
	// Two laptop transactions merged into one product row.
	if rows[0].TransactionCount != 2 || rows[0].TotalAmount != 2400000 {
		t.Errorf("Laptop rollup = %d tx / %v, want 2 / 2400000", rows[0].TransactionCount, rows[0].TotalAmount)
	}
}

func TestTopProductsOverAsk(t *testing.T) {
	rows, err := productFixture(t).TopProducts(50)
	if err != nil {
		t.Fatalf("TopProducts: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d products, want all 5", len(rows))
	}
	if rows[len(rows)-1].Rank != 5 {
		t.Errorf("last rank = %d, want 5", rows[len(rows)-1].Rank)
	}
}

func TestTopProductsRejectsBadN(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := productFixture(t).TopProducts(n); !errors.Is(err, ErrInvalidTopN) {
			t.Errorf("TopProducts(%d) err = %v, want ErrInvalidTopN", n, err)
		}
	}
	if _, err := productFixture(t).TopProductsByCategory(0); !errors.Is(err, ErrInvalidTopN) {
		t.Errorf("TopProductsByCategory(0) err = %v, want ErrInvalidTopN", err)
	}
}

func TestTopProductsByCategory(t *testing.T) {
	rows, err := productFixture(t).TopProductsByCategory(1)
	if err != nil {
		t.Fatalf("TopProductsByCategory: %v", err)
	}
	// One winner per category, in category-sales order.
	wantCats := []string{"Electronics", "Furniture", "Stationery"}
	if len(rows) != len(wantCats) {
		t.Fatalf("got %d rows, want %d", len(rows), len(wantCats))
	}
	for i, cat := range wantCats {
		if rows[i].Category != cat {
			t.Errorf("rows[%d].Category = %q, want %q", i, rows[i].Category, cat)
		}
		if rows[i].RankInCategory != 1 {
			t.Errorf("rows[%d].RankInCategory = %d, want 1", i, rows[i].RankInCategory)
		}
	}
	if rows[1].ProductName != "Desk" {
		t.Errorf("Furniture winner = %q, want Desk", rows[1].ProductName)
	}
}

func TestTopProductsByCategoryRankRestarts(t *testing.T) {
	rows, err := productFixture(t).TopProductsByCategory(10)
	if err != nil {
		t.Fatalf("TopProductsByCategory: %v", err)
	}
	seen := map[string]int{}
	for _, r := range rows {
		seen[r.Category]++
		if r.RankInCategory != seen[r.Category] {
			t.Errorf("%s rank %d out of sequence (want %d)", r.Category, r.RankInCategory, seen[r.Category])
		}
	}
	if seen["Electronics"] != 2 || seen["Furniture"] != 2 || seen["Stationery"] != 1 {
		t.Errorf("per-category counts = %v", seen)
	}
}

func TestPriceDistributionAllBandsPresent(t *testing.T) {
	// Uses the 50,000 edge: 49,999.99 stays under, 50,000 moves up.
	p := NewProducts(makeSet(t, false, []row{
		{"2024-01-01", "A", "x", "", "cheap", 49999.99, 1, 0},
		{"2024-01-02", "A", "x", "", "edge", 50000, 1, 0},
		{"2024-01-03", "A", "x", "", "premium", 2500000, 1, 0},
	}))
	rows := p.PriceDistribution()

	if len(rows) != len(PriceBands) {
		t.Fatalf("got %d bands, want %d", len(rows), len(PriceBands))
	}
	wantCounts := []int{1, 1, 0, 0, 0, 1}
	for i, want := range wantCounts {
		if rows[i].TransactionCount != want {
			t.Errorf("band %q count = %d, want %d", rows[i].Label, rows[i].TransactionCount, want)
		}
	}
}
