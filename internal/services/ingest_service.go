// Package services orchestrates ingestion and report requests across the
// repository and the message broker.
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"salesdash/internal/core"
	"salesdash/internal/loader"
	"salesdash/internal/storage"
)

// IngestService parses raw sources into record sets and persists them,
// deduplicating by content hash.
type IngestService struct {
	storage *storage.SQLiteRepository
}

func NewIngestService(storage *storage.SQLiteRepository) *IngestService {
	return &IngestService{storage: storage}
}

// IngestResult reports what an ingestion did. Deduplicated is true when the
// exact same content was ingested before; the existing dataset is returned.
type IngestResult struct {
	Dataset      storage.Dataset `json:"dataset"`
	Deduplicated bool            `json:"deduplicated"`
}

// IngestCSV parses raw CSV bytes and stores them as a named dataset.
func (s *IngestService) IngestCSV(ctx context.Context, name string, raw []byte) (IngestResult, error) {
	return s.ingest(ctx, name, "csv", raw)
}

// IngestSource loads a source and stores the rows. The cache key hashes the
// joined cell content, so the same rows fetched twice still deduplicate.
func (s *IngestService) IngestSource(ctx context.Context, name, sourceType string, src loader.Source) (IngestResult, error) {
	header, rows, err := src.Load(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("load source: %w", err)
	}

	h := sha256.New()
	writeRow := func(cells []string) {
		for _, c := range cells {
			h.Write([]byte(c))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}

	return s.store(ctx, name, sourceType, hex.EncodeToString(h.Sum(nil)), func() (*core.RecordSet, error) {
		return loader.Parse(header, rows)
	})
}

func (s *IngestService) ingest(ctx context.Context, name, sourceType string, raw []byte) (IngestResult, error) {
	sum := sha256.Sum256(raw)
	return s.store(ctx, name, sourceType, hex.EncodeToString(sum[:]), func() (*core.RecordSet, error) {
		header, rows, err := loader.NewCSVSource(bytes.NewReader(raw)).Load(ctx)
		if err != nil {
			return nil, err
		}
		return loader.Parse(header, rows)
	})
}

// store checks the hash before parsing so a duplicate upload costs one
// database lookup, not a full re-parse.
func (s *IngestService) store(ctx context.Context, name, sourceType, contentHash string, parse func() (*core.RecordSet, error)) (IngestResult, error) {
	existing, found, err := s.storage.FindByHash(ctx, contentHash)
	if err != nil {
		return IngestResult{}, fmt.Errorf("check for existing dataset: %w", err)
	}
	if found {
		slog.InfoContext(ctx, "Dataset already ingested, reusing",
			"dataset_id", existing.ID,
			"name", name,
			"hash", contentHash)
		return IngestResult{Dataset: existing, Deduplicated: true}, nil
	}

	rs, err := parse()
	if err != nil {
		return IngestResult{}, err
	}

	ds, err := s.storage.SaveDataset(ctx, name, sourceType, contentHash, rs)
	if err != nil {
		return IngestResult{}, fmt.Errorf("save dataset: %w", err)
	}
	return IngestResult{Dataset: ds}, nil
}
