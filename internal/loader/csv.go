package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"salesdash/internal/core"
)

// CSVSource reads a sales table from an io.Reader in CSV form.
type CSVSource struct {
	r io.Reader
}

func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{r: r}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the full CSV. A leading UTF-8 BOM on the header is stripped so
// files saved by spreadsheet tools resolve their first column.
func (s *CSVSource) Load(_ context.Context) ([]string, [][]string, error) {
	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // row width is checked during parsing
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmptySource
	}
	return all[0], all[1:], nil
}

// LoadCSVFile opens, reads, and parses a CSV file into a record set.
func LoadCSVFile(ctx context.Context, path string) (*core.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	header, rows, err := NewCSVSource(f).Load(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(header, rows)
}
