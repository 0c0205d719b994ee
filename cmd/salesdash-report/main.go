// Command salesdash-report renders an HTML sales report from a CSV file or
// a Google Sheet without going through the server and queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"salesdash/internal/core"
	"salesdash/internal/loader"
	"salesdash/internal/report"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		input      = flag.String("input", "", "path to the sales CSV file")
		source     = flag.String("source", "csv", "data source: csv or sheets")
		outDir     = flag.String("out", ".", "directory the report is written to")
		title      = flag.String("title", "Sales Analysis Report", "report title")
		currency   = flag.String("currency", "₩", "currency symbol for formatted amounts")
		from       = flag.String("from", "", "only include transactions on or after this date (YYYY-MM-DD)")
		to         = flag.String("to", "", "only include transactions on or before this date (YYYY-MM-DD)")
		categories = flag.String("categories", "", "comma-separated category filter")
		customers  = flag.String("customers", "", "comma-separated customer filter")
	)
	flag.Parse()

	ctx := context.Background()

	rs, err := loadRecords(ctx, *source, *input)
	if err != nil {
		logger.Error("Failed to load records", "error", err, "source", *source)
		os.Exit(1)
	}

	filter, err := buildFilter(*from, *to, *categories, *customers)
	if err != nil {
		logger.Error("Invalid filter", "error", err)
		os.Exit(1)
	}
	if !filter.IsZero() {
		rs = rs.Filter(filter)
	}

	data, err := report.Build(ctx, rs, report.Options{Title: *title, Currency: *currency})
	if err != nil {
		logger.Error("Failed to build report", "error", err, "rows", rs.Len())
		os.Exit(1)
	}

	path, err := report.Save(*outDir, data)
	if err != nil {
		logger.Error("Failed to write report", "error", err, "dir", *outDir)
		os.Exit(1)
	}

	logger.Info("Report written", "path", path, "rows", rs.Len())
	fmt.Println(path)
}

func loadRecords(ctx context.Context, source, input string) (*core.RecordSet, error) {
	switch source {
	case "csv":
		if input == "" {
			return nil, fmt.Errorf("-input is required for the csv source")
		}
		return loader.LoadCSVFile(ctx, input)
	case "sheets":
		src, err := loader.NewSheetsSourceFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		header, rows, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		return loader.Parse(header, rows)
	default:
		return nil, fmt.Errorf("unknown source %q, expected csv or sheets", source)
	}
}

func buildFilter(from, to, categories, customers string) (core.Filter, error) {
	var f core.Filter
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return core.Filter{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		f.From = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return core.Filter{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		f.To = t
	}
	f.Categories = splitList(categories)
	f.Customers = splitList(customers)
	return f, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
