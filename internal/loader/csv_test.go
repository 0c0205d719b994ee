package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"salesdash/internal/core"
)

const sampleCSV = `date,customer_name,category_name,product_code,product_name,unit_price,quantity,amount,discount_rate
2024-01-15,Acme,Electronics,E1,Laptop,1200000,1,1080000,0.1
2024-01-16,Bolt,Furniture,F1,Desk,250000,2,500000,0
2024-02-01,Acme,Electronics,E2,Mouse,30000,3,90000,
`

func TestLoadCSV(t *testing.T) {
	rs, err := loadString(t, sampleCSV)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rs.Len() != 3 {
		t.Fatalf("got %d records, want 3", rs.Len())
	}
	if !rs.HasDiscountData() {
		t.Fatal("discount column present but flag not set")
	}

	r := rs.Records()[0]
	if r.Customer != "Acme" || r.ProductName != "Laptop" {
		t.Errorf("first record = %s/%s", r.Customer, r.ProductName)
	}
	if r.Discount != 0.1 || !r.DiscountApplied {
		t.Errorf("first record discount = %v applied=%v", r.Discount, r.DiscountApplied)
	}
	if r.YearMonth != "2024-01" {
		t.Errorf("first record YearMonth = %q", r.YearMonth)
	}

	// Empty discount cell coerces to zero, not an error.
	if last := rs.Records()[2]; last.Discount != 0 || last.DiscountApplied {
		t.Errorf("empty discount cell parsed as %v applied=%v", last.Discount, last.DiscountApplied)
	}
}

func TestLoadCSVWithoutDiscountColumn(t *testing.T) {
	rs, err := loadString(t, strings.Join([]string{
		"date,customer_name,category_name,product_name,unit_price,quantity,amount",
		"2024-01-15,Acme,Electronics,Laptop,1200000,1,1200000",
	}, "\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rs.HasDiscountData() {
		t.Fatal("no discount column but flag set")
	}
	if r := rs.Records()[0]; r.Discount != 0 {
		t.Errorf("discount = %v, want 0", r.Discount)
	}
}

func TestLoadCSVMissingColumns(t *testing.T) {
	_, err := loadString(t, strings.Join([]string{
		"date,customer_name,product_name",
		"2024-01-15,Acme,Laptop",
	}, "\n"))

	var schemaErr *core.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
	want := []string{"category_name", "unit_price", "quantity", "amount"}
	if len(schemaErr.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", schemaErr.Missing, want)
	}
}

func TestLoadCSVBadRows(t *testing.T) {
	cases := []struct {
		name string
		row  string
		want string
	}{
		{"bad date", "not-a-date,Acme,x,p,100,1,100,0", "row 2"},
		{"bad price", "2024-01-15,Acme,x,p,abc,1,100,0", "unit_price"},
		{"bad quantity", "2024-01-15,Acme,x,p,100,one,100,0", "quantity"},
		{"discount out of range", "2024-01-15,Acme,x,p,100,1,100,1.5", ""},
	}
	header := "date,customer_name,category_name,product_name,unit_price,quantity,amount,discount_rate"
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadString(t, header+"\n"+tc.row)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != "" && !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}

	t.Run("range error is the core sentinel", func(t *testing.T) {
		_, err := loadString(t, header+"\n2024-01-15,Acme,x,p,100,1,100,1.5")
		if !errors.Is(err, core.ErrDiscountRange) {
			t.Fatalf("err = %v, want ErrDiscountRange", err)
		}
	})
}

func TestLoadCSVEmpty(t *testing.T) {
	for name, input := range map[string]string{
		"no content":  "",
		"header only": "date,customer_name,category_name,product_name,unit_price,quantity,amount\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loadString(t, input)
			if !errors.Is(err, ErrEmptySource) {
				t.Fatalf("err = %v, want ErrEmptySource", err)
			}
		})
	}
}

func TestLoadCSVStripsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFdate,customer_name,category_name,product_name,unit_price,quantity,amount\n" +
		"2024-01-15,Acme,Electronics,Laptop,1200000,1,1200000\n"
	rs, err := loadString(t, input)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("got %d records, want 1", rs.Len())
	}
}

func TestLoadCSVGroupedDigits(t *testing.T) {
	input := "date,customer_name,category_name,product_name,unit_price,quantity,amount\n" +
		`2024-01-15,Acme,Electronics,Laptop,"1,200,000",1,"1,200,000"` + "\n"
	rs, err := loadString(t, input)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := rs.Records()[0].UnitPrice; got != 1200000 {
		t.Errorf("UnitPrice = %v, want 1200000", got)
	}
}

func loadString(t *testing.T, input string) (*core.RecordSet, error) {
	t.Helper()
	header, rows, err := NewCSVSource(strings.NewReader(input)).Load(context.Background())
	if err != nil {
		return nil, err
	}
	return Parse(header, rows)
}
