package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
	"salesdash/internal/storage"
)

// ReportPublisher is the slice of the AMQP client the report service needs.
type ReportPublisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
}

// ReportService validates report requests and hands them to the worker queue.
type ReportService struct {
	storage   *storage.SQLiteRepository
	publisher ReportPublisher
}

func NewReportService(storage *storage.SQLiteRepository, publisher ReportPublisher) *ReportService {
	return &ReportService{storage: storage, publisher: publisher}
}

// RequestReport checks the dataset exists and enqueues a report job. The
// returned job ID lets callers correlate the eventual report file.
func (s *ReportService) RequestReport(ctx context.Context, datasetID string, filter core.Filter) (string, error) {
	if _, err := s.storage.GetDataset(ctx, datasetID); err != nil {
		return "", err
	}
	if s.publisher == nil {
		return "", fmt.Errorf("report queue not configured")
	}

	jobID := uuid.NewString()
	msg := amqp.NewReportRequestMessage(jobID, datasetID, filter)
	if err := s.publisher.PublishReportRequest(ctx, msg); err != nil {
		return "", fmt.Errorf("enqueue report job: %w", err)
	}

	slog.InfoContext(ctx, "Report job enqueued",
		"job_id", jobID,
		"dataset_id", datasetID)
	return jobID, nil
}
