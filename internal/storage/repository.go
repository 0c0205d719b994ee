// Package storage persists ingested datasets in SQLite so repeated analysis
// of the same source never re-parses it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"salesdash/internal/core"

	_ "modernc.org/sqlite"
)

var ErrDatasetNotFound = errors.New("dataset not found")

const dateFormat = "2006-01-02"

// Dataset is the stored metadata of one ingested source.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SourceType  string    `json:"source_type"`
	ContentHash string    `json:"content_hash"`
	RowCount    int       `json:"row_count"`
	HasDiscount bool      `json:"has_discount"`
	MinDate     time.Time `json:"min_date"`
	MaxDate     time.Time `json:"max_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveDataset stores the record set and its metadata in one transaction and
// returns the new dataset. The caller supplies the content hash used for
// dedup lookups.
func (r *SQLiteRepository) SaveDataset(ctx context.Context, name, sourceType, contentHash string, rs *core.RecordSet) (Dataset, error) {
	minDate, maxDate := rs.DateRange()
	ds := Dataset{
		ID:          uuid.NewString(),
		Name:        name,
		SourceType:  sourceType,
		ContentHash: contentHash,
		RowCount:    rs.Len(),
		HasDiscount: rs.HasDiscountData(),
		MinDate:     minDate,
		MaxDate:     maxDate,
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Dataset{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, name, source_type, content_hash, row_count, has_discount, min_date, max_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.SourceType, ds.ContentHash, ds.RowCount,
		boolToInt(ds.HasDiscount), ds.MinDate.Format(dateFormat), ds.MaxDate.Format(dateFormat),
		ds.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Dataset{}, fmt.Errorf("insert dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (dataset_id, date, customer_name, category_name, product_code, product_name, unit_price, quantity, amount, discount_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Dataset{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range rs.Records() {
		_, err := stmt.ExecContext(ctx,
			ds.ID, rec.Date.Format(dateFormat), rec.Customer, rec.Category,
			rec.ProductCode, rec.ProductName, rec.UnitPrice, rec.Quantity,
			rec.Amount, rec.Discount)
		if err != nil {
			return Dataset{}, fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Dataset{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Dataset saved to SQLite",
		"dataset_id", ds.ID,
		"name", ds.Name,
		"rows", ds.RowCount,
		"source_type", ds.SourceType)

	return ds, nil
}

// FindByHash looks a dataset up by content hash. The bool reports whether a
// match exists; a miss is not an error.
func (r *SQLiteRepository) FindByHash(ctx context.Context, contentHash string) (Dataset, bool, error) {
	row := r.db.QueryRowContext(ctx, selectDataset+" WHERE content_hash = ?", contentHash)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, false, nil
	}
	if err != nil {
		return Dataset{}, false, fmt.Errorf("find dataset by hash: %w", err)
	}
	return ds, true, nil
}

func (r *SQLiteRepository) GetDataset(ctx context.Context, id string) (Dataset, error) {
	row := r.db.QueryRowContext(ctx, selectDataset+" WHERE id = ?", id)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Dataset{}, ErrDatasetNotFound
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("get dataset: %w", err)
	}
	return ds, nil
}

func (r *SQLiteRepository) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := r.db.QueryContext(ctx, selectDataset+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return datasets, nil
}

// LoadRecords reloads a dataset's transactions and re-derives the analysis
// columns. Derivation happens here, not at save time, so stored rows stay in
// raw source shape.
func (r *SQLiteRepository) LoadRecords(ctx context.Context, id string) (*core.RecordSet, error) {
	ds, err := r.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date, customer_name, category_name, product_code, product_name, unit_price, quantity, amount, discount_rate
		FROM transactions WHERE dataset_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	records := make([]core.Record, 0, ds.RowCount)
	for rows.Next() {
		var dateStr string
		var tx core.Transaction
		err := rows.Scan(&dateStr, &tx.Customer, &tx.Category, &tx.ProductCode,
			&tx.ProductName, &tx.UnitPrice, &tx.Quantity, &tx.Amount, &tx.Discount)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date, err = time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateStr, err)
		}
		records = append(records, core.Derive(tx))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return core.NewRecordSet(records, ds.HasDiscount), nil
}

func (r *SQLiteRepository) DeleteDataset(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM datasets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDatasetNotFound
	}

	slog.InfoContext(ctx, "Dataset deleted", "dataset_id", id)
	return nil
}

const selectDataset = `
	SELECT id, name, source_type, content_hash, row_count, has_discount, min_date, max_date, created_at
	FROM datasets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (Dataset, error) {
	var ds Dataset
	var hasDiscount int
	var minDate, maxDate, createdAt string
	err := row.Scan(&ds.ID, &ds.Name, &ds.SourceType, &ds.ContentHash,
		&ds.RowCount, &hasDiscount, &minDate, &maxDate, &createdAt)
	if err != nil {
		return Dataset{}, err
	}

	ds.HasDiscount = hasDiscount != 0
	if ds.MinDate, err = time.Parse(dateFormat, minDate); err != nil {
		return Dataset{}, fmt.Errorf("parse min date: %w", err)
	}
	if ds.MaxDate, err = time.Parse(dateFormat, maxDate); err != nil {
		return Dataset{}, fmt.Errorf("parse max date: %w", err)
	}
	if ds.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Dataset{}, fmt.Errorf("parse created at: %w", err)
	}
	return ds, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
