// Package history keeps a DuckDB-backed log of gateway OCR requests.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/ocr-scanner/backend/internal/models"
	"github.com/rs/zerolog"
)

// DefaultLimit is used when Recent is called with a non-positive limit.
const DefaultLimit = 50

// MaxLimit caps a single Recent query.
const MaxLimit = 1000

// Recorder persists and lists scan records.
type Recorder interface {
	Record(ctx context.Context, rec *models.ScanRecord) error
	Recent(ctx context.Context, limit int) ([]models.ScanRecord, error)
	Counts(ctx context.Context) (map[models.ScanStatus]int, error)
	Close() error
}

// Options tunes the DuckDB connection.
type Options struct {
	Threads     int
	MemoryLimit string
	Logger      zerolog.Logger
}

// DuckStore stores scan records in a DuckDB file.
type DuckStore struct {
	db     *sql.DB
	dbPath string
	log    zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the history database at dbPath. An empty path
// opens an in-memory database.
func Open(dbPath string, opts Options) (*DuckStore, error) {
	log := opts.Logger.With().Str("component", "history").Logger()

	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id          VARCHAR PRIMARY KEY,
			file_name   VARCHAR NOT NULL,
			media_type  VARCHAR,
			size        BIGINT NOT NULL,
			status      VARCHAR NOT NULL,
			error       VARCHAR,
			text_length INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	log.Debug().Str("path", dbPath).Strs("pragmas", pragmas).Msg("history database ready")

	return &DuckStore{db: db, dbPath: dbPath, log: log}, nil
}

// Record inserts rec, filling in ID and CreatedAt when unset.
func (ds *DuckStore) Record(ctx context.Context, rec *models.ScanRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := ds.db.ExecContext(ctx,
		`INSERT INTO scans (id, file_name, media_type, size, status, error, text_length, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.MediaType, rec.Size, string(rec.Status), rec.Error,
		int64(rec.TextLength), rec.DurationMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (ds *DuckStore) Recent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	query := fmt.Sprintf(`SELECT id, file_name, media_type, size, status, error, text_length, duration_ms, created_at
		FROM scans ORDER BY created_at DESC, id LIMIT %d`, limit)
	rows, err := ds.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	records := make([]models.ScanRecord, 0, limit)
	for rows.Next() {
		var (
			rec       models.ScanRecord
			status    string
			mediaType sql.NullString
			errText   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.FileName, &mediaType, &rec.Size, &status, &errText,
			&rec.TextLength, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.MediaType = mediaType.String
		rec.Error = errText.String
		rec.Status = models.ScanStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Counts returns the number of records per status.
func (ds *DuckStore) Counts(ctx context.Context) (map[models.ScanStatus]int, error) {
	rows, err := ds.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM scans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ScanStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.ScanStatus(status)] = n
	}
	return counts, rows.Err()
}

// Close closes the database. It is safe to call more than once.
func (ds *DuckStore) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return nil
	}
	ds.closed = true
	return ds.db.Close()
}

// Discard is a Recorder that keeps nothing. It is used when history is disabled.
type Discard struct{}

func (Discard) Record(context.Context, *models.ScanRecord) error { return nil }

func (Discard) Recent(context.Context, int) ([]models.ScanRecord, error) {
	return []models.ScanRecord{}, nil
}

func (Discard) Counts(context.Context) (map[models.ScanStatus]int, error) {
	return map[models.ScanStatus]int{}, nil
}

func (Discard) Close() error { return nil }
