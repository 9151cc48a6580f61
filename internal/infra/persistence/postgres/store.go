// Package postgres persists diagrams to PostgreSQL through pgx's database/sql
// driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"pidcore/pkg/domain"
)

var _ domain.DiagramRepository = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when NewStore receives an empty DSN.
	DefaultDSN = "postgres://localhost/pidcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const schema = `CREATE TABLE IF NOT EXISTS diagrams (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	version TEXT NOT NULL,
	elements INTEGER NOT NULL,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// Store keeps one row per diagram with the document in a JSONB column.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore connects to dsn, verifies the connection and ensures the
// diagrams table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure diagrams table: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Save upserts d inside a transaction.
func (s *Store) Save(ctx context.Context, d domain.Diagram) error {
	if d.ID == "" {
		return errors.New("diagram id required")
	}
	d = d.Clone()
	d.Normalize()
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode diagram %s: %w", d.ID, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO diagrams(id,title,version,elements,payload,updated_at) VALUES($1,$2,$3,$4,$5,$6) ON CONFLICT(id) DO UPDATE SET title=EXCLUDED.title, version=EXCLUDED.version, elements=EXCLUDED.elements, payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`,
		d.ID, d.Metadata.Title, d.Version, int64(d.Len()), string(payload), s.now()); err != nil {
		return fmt.Errorf("upsert diagram %s: %w", d.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Load decodes the stored document.
func (s *Store) Load(ctx context.Context, id string) (domain.Diagram, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM diagrams WHERE id = $1`, id)
	if err != nil {
		return domain.Diagram{}, fmt.Errorf("select diagram %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Diagram{}, fmt.Errorf("select diagram %s: %w", id, err)
		}
		return domain.Diagram{}, domain.NotFoundError{Kind: "diagram", ID: id}
	}
	var payload []byte
	if err := rows.Scan(&payload); err != nil {
		return domain.Diagram{}, fmt.Errorf("scan diagram %s: %w", id, err)
	}
	var d domain.Diagram
	if err := json.Unmarshal(payload, &d); err != nil {
		return domain.Diagram{}, fmt.Errorf("decode diagram %s: %w", id, err)
	}
	d.Normalize()
	return d, nil
}

// List reads the listing columns, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.DiagramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, version, elements, updated_at FROM diagrams ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select diagrams: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.DiagramSummary
	for rows.Next() {
		var sum domain.DiagramSummary
		var elements int64
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Version, &elements, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		sum.Elements = int(elements)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagrams: %w", err)
	}
	return out, nil
}

// Delete removes a diagram row.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete diagram %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
