// Package history keeps a DuckDB log of every conversion the server handled.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcboeker/go-duckdb"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Entry is one recorded conversion.
type Entry struct {
	ID         string    `json:"id" msgpack:"id"`
	Endpoint   string    `json:"endpoint" msgpack:"endpoint"`
	SourceName string    `json:"sourceName" msgpack:"sourceName"`
	OutputName string    `json:"outputName,omitempty" msgpack:"outputName,omitempty"`
	InputSize  int64     `json:"inputSize" msgpack:"inputSize"`
	OutputSize int64     `json:"outputSize" msgpack:"outputSize"`
	Outcome    string    `json:"outcome" msgpack:"outcome"`
	Error      string    `json:"error,omitempty" msgpack:"error,omitempty"`
	DurationMS int64     `json:"durationMs" msgpack:"durationMs"`
	CreatedAt  time.Time `json:"createdAt" msgpack:"createdAt"`
}

// Stat counts conversions per endpoint and outcome.
type Stat struct {
	Endpoint string `json:"endpoint" msgpack:"endpoint"`
	Outcome  string `json:"outcome" msgpack:"outcome"`
	Count    int64  `json:"count" msgpack:"count"`
}

// Recorder is what the API needs from the history store.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Stats(ctx context.Context) ([]Stat, error)
}

// Store is a DuckDB-backed Recorder.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Recorder = (*Store)(nil)

// Open opens or creates the history database at path. An empty path keeps the
// history in memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "history")

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS conversions (
			id          VARCHAR PRIMARY KEY,
			endpoint    VARCHAR NOT NULL,
			source_name VARCHAR NOT NULL,
			output_name VARCHAR,
			input_size  BIGINT NOT NULL,
			output_size BIGINT NOT NULL,
			outcome     VARCHAR NOT NULL,
			error       VARCHAR,
			duration_ms BIGINT NOT NULL,
			created_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("history opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Record inserts a conversion entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversions
			(id, endpoint, source_name, output_name, input_size, output_size, outcome, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Endpoint, e.SourceName, e.OutputName, e.InputSize, e.OutputSize,
		e.Outcome, e.Error, e.DurationMS, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording conversion %s: %w", e.ID, err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, endpoint, source_name, COALESCE(output_name, ''), input_size, output_size,
		       outcome, COALESCE(error, ''), duration_ms, created_at
		FROM conversions
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Endpoint, &e.SourceName, &e.OutputName, &e.InputSize,
			&e.OutputSize, &e.Outcome, &e.Error, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns conversion counts grouped by endpoint and outcome.
func (s *Store) Stats(ctx context.Context) ([]Stat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT endpoint, outcome, COUNT(*)
		FROM conversions
		GROUP BY endpoint, outcome
		ORDER BY endpoint, outcome`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var st Stat
		if err := rows.Scan(&st.Endpoint, &st.Outcome, &st.Count); err != nil {
			return nil, fmt.Errorf("scanning stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
