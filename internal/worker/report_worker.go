// Package worker consumes report jobs and writes the rendered HTML files.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"salesdash/internal/amqp"
	"salesdash/internal/report"
	"salesdash/internal/storage"
)

// ReportWorker turns queued report requests into HTML files on disk.
type ReportWorker struct {
	storage   *storage.SQLiteRepository
	outputDir string
	opts      report.Options
}

func NewReportWorker(storage *storage.SQLiteRepository, outputDir string, opts report.Options) *ReportWorker {
	return &ReportWorker{
		storage:   storage,
		outputDir: outputDir,
		opts:      opts,
	}
}

// HandleReportRequest processes a single report job: reload the dataset,
// apply the requested filter, build the analysis, and save the HTML.
func (w *ReportWorker) HandleReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	slog.InfoContext(ctx, "Processing report request",
		"job_id", msg.JobID,
		"dataset_id", msg.DatasetID)

	rs, err := w.storage.LoadRecords(ctx, msg.DatasetID)
	if err != nil {
		return fmt.Errorf("load dataset records: %w", err)
	}

	filter := msg.Filter()
	if !filter.IsZero() {
		rs = rs.Filter(filter)
	}
	if rs.Len() == 0 {
		// Nothing to report on. Dropping the job beats requeueing it
		// forever; the filter excludes every row.
		slog.WarnContext(ctx, "Report filter matched no records, skipping",
			"job_id", msg.JobID,
			"dataset_id", msg.DatasetID)
		return nil
	}

	data, err := report.Build(ctx, rs, w.opts)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	path, err := report.Save(w.outputDir, data)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.InfoContext(ctx, "Report written",
		"job_id", msg.JobID,
		"dataset_id", msg.DatasetID,
		"report_path", path,
		"rows", rs.Len())
	return nil
}
