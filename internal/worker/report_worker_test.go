package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
	"salesdash/internal/report"
	"salesdash/internal/storage"
)

func seedDataset(t *testing.T, repo *storage.SQLiteRepository) storage.Dataset {
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
			Date: day("2024-06-20"), Customer: "Bolt", Category: "Furniture",
			ProductName: "Desk", UnitPrice: 250000, Quantity: 2, Amount: 500000,
		}),
	}
	ds, err := repo.SaveDataset(context.Background(), "seed", "csv", "seed-hash",
		core.NewRecordSet(records, true))
	if err != nil {
		t.Fatalf("seed dataset: %v", err)
	}
	return ds
}

func TestHandleReportRequest(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()
	ds := seedDataset(t, repo)

	outDir := filepath.Join(t.TempDir(), "reports")
	w := NewReportWorker(repo, outDir, report.Options{Title: "Test", Currency: "$"})

	msg := amqp.NewReportRequestMessage("job-1", ds.ID, core.Filter{})
	if err := w.HandleReportRequest(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d report files, want 1", len(entries))
	}
	if !strings.HasPrefix(entries[0].Name(), "sales_report_") {
		t.Errorf("unexpected report name %q", entries[0].Name())
	}
}

func TestHandleReportRequestWithFilter(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()
	ds := seedDataset(t, repo)

	outDir := filepath.Join(t.TempDir(), "reports")
	w := NewReportWorker(repo, outDir, report.Options{Title: "Test", Currency: "$"})

	msg := amqp.NewReportRequestMessage("job-2", ds.ID, core.Filter{
		Categories: []string{"Electronics"},
	})
	if err := w.HandleReportRequest(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d report files, want 1", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "Laptop") {
		t.Error("filtered report missing matching product")
	}
	if strings.Contains(html, "Desk") {
		t.Error("filtered report contains excluded product")
	}
}

func TestHandleReportRequestEmptyMatchDropsJob(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()
	ds := seedDataset(t, repo)

	outDir := filepath.Join(t.TempDir(), "reports")
	w := NewReportWorker(repo, outDir, report.Options{Title: "Test", Currency: "$"})

	msg := amqp.NewReportRequestMessage("job-3", ds.ID, core.Filter{
		Customers: []string{"Nobody"},
	})
	// No match is not a handler failure: the job must ack, not requeue.
	if err := w.HandleReportRequest(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := os.ReadDir(outDir); err == nil {
		entries, _ := os.ReadDir(outDir)
		if len(entries) != 0 {
			t.Errorf("report written for empty match")
		}
	}
}

func TestHandleReportRequestUnknownDataset(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	w := NewReportWorker(repo, t.TempDir(), report.Options{})
	msg := amqp.NewReportRequestMessage("job-4", "missing", core.Filter{})
	if err := w.HandleReportRequest(context.Background(), msg); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}
