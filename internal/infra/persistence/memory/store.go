// Package memory provides an in-memory diagram repository for tests and
// ephemeral sessions.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pidcore/pkg/domain"
)

var _ domain.DiagramRepository = (*Store)(nil)

var errMissingID = errors.New("diagram id required")

type record struct {
	diagram   domain.Diagram
	updatedAt time.Time
}

// Store keeps deep copies of saved diagrams keyed by id.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
	now     func() time.Time
}

// NewStore returns an empty repository.
func NewStore() *Store {
	return &Store{records: make(map[string]record), now: func() time.Time { return time.Now().UTC() }}
}

// Save inserts or replaces d.
func (s *Store) Save(ctx context.Context, d domain.Diagram) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.ID == "" {
		return errMissingID
	}
	cp := d.Clone()
	cp.Normalize()
	s.mu.Lock()
	s.records[cp.ID] = record{diagram: cp, updatedAt: s.now()}
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the saved diagram or a domain.NotFoundError.
func (s *Store) Load(ctx context.Context, id string) (domain.Diagram, error) {
	if err := ctx.Err(); err != nil {
		return domain.Diagram{}, err
	}
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return domain.Diagram{}, domain.NotFoundError{Kind: "diagram", ID: id}
	}
	return rec.diagram.Clone(), nil
}

// List returns summaries ordered by most recent update, then id.
func (s *Store) List(ctx context.Context) ([]domain.DiagramSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.DiagramSummary, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, domain.SummaryOf(rec.diagram, rec.updatedAt))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a diagram, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	delete(s.records, id)
	return ok, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
