package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pidcore/pkg/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "pid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func diagram(id, title string) domain.Diagram {
	tank := domain.NewEquipment(domain.EquipmentSpec{ID: id + "-tk", Tag: "TK-101", Category: domain.EquipmentTank, Nozzles: domain.DefaultNozzles(domain.EquipmentTank)})
	valve := domain.NewValve(domain.ValveSpec{ID: id + "-xv", Tag: "XV-101", Category: domain.ValveGate})
	line := domain.NewLine(domain.LineSpec{
		ID:     id + "-l",
		Source: domain.Endpoint{ElementID: tank.ID, NozzleID: "n2"},
		Target: domain.Endpoint{ElementID: valve.ID, NozzleID: domain.PointInlet},
	})
	return domain.NewDiagram(domain.DiagramSpec{
		ID:        id,
		Metadata:  &domain.DiagramMetadata{Title: title},
		Equipment: []domain.Equipment{tank},
		Valves:    []domain.Valve{valve},
		Lines:     []domain.ProcessLine{line},
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	d := diagram("d1", "Feed section")
	require.NoError(t, store.Save(ctx, d))

	got, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestSaveUpserts(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	require.NoError(t, store.Save(ctx, diagram("a", "A")))
	require.NoError(t, store.Save(ctx, diagram("b", "B")))
	revised := diagram("a", "A rev 2")
	revised.Annotations = append(revised.Annotations, domain.NewAnnotation(domain.AnnotationSpec{ID: "note", Text: "rev 2"}))
	require.NoError(t, store.Save(ctx, revised))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].ID)
	require.Equal(t, "A rev 2", list[0].Title)
	require.Equal(t, 4, list[0].Elements)
	require.Equal(t, base.Add(3*time.Second), list[0].UpdatedAt)
	require.Equal(t, "b", list[1].ID)
}

func TestMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Save(ctx, diagram("d", "x")))
	ok, err := store.Delete(ctx, "d")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.Delete(ctx, "d")
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, store.Save(ctx, domain.Diagram{}))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pid.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	require.Equal(t, path, store.Path())
	require.NoError(t, store.Save(ctx, diagram("keep", "Persisted")))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Load(ctx, "keep")
	require.NoError(t, err)
	require.Equal(t, "Persisted", got.Metadata.Title)
}
