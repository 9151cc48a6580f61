package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is matched by errors.Is for every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a missing record of a given kind.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DiagramSummary is a listing row for a persisted diagram.
type DiagramSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   string    `json:"version"`
	Elements  int       `json:"elements"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SummaryOf builds the listing row for d.
func SummaryOf(d Diagram, updatedAt time.Time) DiagramSummary {
	return DiagramSummary{
		ID:        d.ID,
		Title:     d.Metadata.Title,
		Version:   d.Version,
		Elements:  d.Len(),
		UpdatedAt: updatedAt,
	}
}

// DiagramRepository is the durable home of saved diagrams. Implementations
// store and return independent copies; callers never share slices with the
// repository.
type DiagramRepository interface {
	Save(ctx context.Context, d Diagram) error
	Load(ctx context.Context, id string) (Diagram, error)
	List(ctx context.Context) ([]DiagramSummary, error)
	Delete(ctx context.Context, id string) (bool, error)
	Close() error
}
