package amqp

import (
	"encoding/json"
	"time"

	"salesdash/internal/core"
)

// ReportRequestMessage asks a worker to build an HTML report for a stored
// dataset. It carries only the dataset ID and the filter; the worker reloads
// the records from the database.
type ReportRequestMessage struct {
	JobID       string    `json:"job_id"`
	DatasetID   string    `json:"dataset_id"`
	From        string    `json:"from,omitempty"` // "2006-01-02", empty means unbounded
	To          string    `json:"to,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	Customers   []string  `json:"customers,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReportRequestMessage creates a request message for a dataset and filter.
func NewReportRequestMessage(jobID, datasetID string, filter core.Filter) *ReportRequestMessage {
	msg := &ReportRequestMessage{
		JobID:       jobID,
		DatasetID:   datasetID,
		Categories:  filter.Categories,
		Customers:   filter.Customers,
		RequestedAt: time.Now(),
	}
	if !filter.From.IsZero() {
		msg.From = filter.From.Format("2006-01-02")
	}
	if !filter.To.IsZero() {
		msg.To = filter.To.Format("2006-01-02")
	}
	return msg
}

// Filter reconstructs the core filter the message encodes. Unparseable dates
// are treated as unbounded; the publisher validated them.
func (m *ReportRequestMessage) Filter() core.Filter {
	f := core.Filter{
		Categories: m.Categories,
		Customers:  m.Customers,
	}
	if t, err := time.Parse("2006-01-02", m.From); err == nil {
		f.From = t
	}
	if t, err := time.Parse("2006-01-02", m.To); err == nil {
		f.To = t
	}
	return f
}

// ToJSON converts the message to JSON bytes
func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportRequestMessageFromJSON creates a message from JSON bytes
func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
