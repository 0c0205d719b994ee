package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"salesdash/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
		{64, 30 * time.Second}, // shift overflow also caps
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "connection error",
			err:      errors.New("connection refused"),
			expected: true,
		},
		{
			name:     "closed connection error",
			err:      errors.New("connection closed"),
			expected: true,
		},
		{
			name:     "EOF error",
			err:      errors.New("unexpected EOF"),
			expected: true,
		},
		{
			name:     "broken pipe error",
			err:      errors.New("broken pipe"),
			expected: true,
		},
		{
			name:     "closed network connection error",
			err:      errors.New("use of closed network connection"),
			expected: true,
		},
		{
			name:     "other error",
			err:      errors.New("some other error"),
			expected: false,
		},
		{
			name:     "validation error",
			err:      errors.New("invalid input"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestNewReportRequestMessage(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	filter := core.Filter{
		From:       from,
		To:         to,
		Categories: []string{"Electronics"},
		Customers:  []string{"Acme"},
	}

	msg := NewReportRequestMessage("job-1", "ds-1", filter)

	if msg.JobID != "job-1" || msg.DatasetID != "ds-1" {
		t.Errorf("IDs = %s/%s", msg.JobID, msg.DatasetID)
	}
	if msg.From != "2024-01-01" || msg.To != "2024-03-31" {
		t.Errorf("date range = %s..%s", msg.From, msg.To)
	}
	if msg.RequestedAt.IsZero() {
		t.Error("RequestedAt should not be zero")
	}
	if time.Since(msg.RequestedAt) > time.Second {
		t.Error("RequestedAt should be recent")
	}
}

func TestReportRequestMessage_FilterRoundTrip(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := core.Filter{
		From:       from,
		Categories: []string{"Electronics", "Furniture"},
	}

	msg := NewReportRequestMessage("job-2", "ds-2", filter)
	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ReportRequestMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReportRequestMessageFromJSON() error = %v", err)
	}

	got := parsed.Filter()
	if !got.From.Equal(from) {
		t.Errorf("Filter().From = %v, want %v", got.From, from)
	}
	if !got.To.IsZero() {
		t.Errorf("Filter().To = %v, want zero (unbounded)", got.To)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "Electronics" {
		t.Errorf("Filter().Categories = %v", got.Categories)
	}
	if got.Customers != nil {
		t.Errorf("Filter().Customers = %v, want nil", got.Customers)
	}
}

func TestReportRequestMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"job_id": 7, "dataset_id": true}`)

	if _, err := ReportRequestMessageFromJSON(invalidJSON); err == nil {
		t.Error("ReportRequestMessageFromJSON() should fail with invalid JSON")
	}
}
