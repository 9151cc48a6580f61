// Package sqlite persists diagrams to an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pidcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.DiagramRepository = (*Store)(nil)

// DefaultPath is used when NewStore receives an empty path.
const DefaultPath = "pidcore.db"

const schema = `CREATE TABLE IF NOT EXISTS diagrams (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	version TEXT NOT NULL,
	elements INTEGER NOT NULL,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store keeps one row per diagram with the full document as a JSON payload
// and the listing columns denormalised beside it.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create diagrams table: %w", err)
	}
	return &Store{db: db, path: path, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Save upserts d.
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
	_, err = s.db.ExecContext(ctx, `INSERT INTO diagrams(id,title,version,elements,payload,updated_at) VALUES(?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET title=excluded.title, version=excluded.version, elements=excluded.elements,
		payload=excluded.payload, updated_at=excluded.updated_at`,
		d.ID, d.Metadata.Title, d.Version, d.Len(), payload, s.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert diagram %s: %w", d.ID, err)
	}
	return nil
}

// Load decodes the stored payload.
func (s *Store) Load(ctx context.Context, id string) (domain.Diagram, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM diagrams WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Diagram{}, domain.NotFoundError{Kind: "diagram", ID: id}
	}
	if err != nil {
		return domain.Diagram{}, fmt.Errorf("select diagram %s: %w", id, err)
	}
	var d domain.Diagram
	if err := json.Unmarshal(payload, &d); err != nil {
		return domain.Diagram{}, fmt.Errorf("decode diagram %s: %w", id, err)
	}
	d.Normalize()
	return d, nil
}

// List reads the listing columns without decoding payloads.
func (s *Store) List(ctx context.Context) ([]domain.DiagramSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, version, elements, updated_at FROM diagrams ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("select diagrams: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.DiagramSummary
	for rows.Next() {
		var sum domain.DiagramSummary
		var updated string
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Version, &sum.Elements, &updated); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("diagram %s: bad updated_at %q: %w", sum.ID, updated, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a diagram row.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete diagram %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
