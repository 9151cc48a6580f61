package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pidcore/pkg/domain"
)

func diagram(id, title string) domain.Diagram {
	pump := domain.NewEquipment(domain.EquipmentSpec{ID: id + "-p", Tag: "P-101", Category: domain.EquipmentPump})
	return domain.NewDiagram(domain.DiagramSpec{
		ID:        id,
		Metadata:  &domain.DiagramMetadata{Title: title},
		Equipment: []domain.Equipment{pump},
	})
}

func TestSaveLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	d := diagram("d1", "Feed")
	require.NoError(t, store.Save(ctx, d))

	d.Equipment[0].Tag = "changed"
	got, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "P-101", got.Equipment[0].Tag)

	got.Equipment[0].Tag = "changed again"
	again, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, "P-101", again.Equipment[0].Tag)
}

func TestLoadMissing(t *testing.T) {
	_, err := NewStore().Load(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
	var nf domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "nope", nf.ID)
}

func TestListOrdersByUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	require.NoError(t, store.Save(ctx, diagram("a", "First")))
	require.NoError(t, store.Save(ctx, diagram("b", "Second")))
	require.NoError(t, store.Save(ctx, diagram("a", "First, revised")))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].ID)
	require.Equal(t, "First, revised", list[0].Title)
	require.Equal(t, 1, list[0].Elements)
	require.Equal(t, "b", list[1].ID)
}

func TestDeleteAndValidation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.Error(t, store.Save(ctx, domain.Diagram{}))
	require.NoError(t, store.Save(ctx, diagram("d", "x")))

	ok, err := store.Delete(ctx, "d")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.Delete(ctx, "d")
	require.NoError(t, err)
	require.False(t, ok)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, store.Save(cancelled, diagram("e", "y")), context.Canceled)
	require.NoError(t, store.Close())
}
