package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectFiltersUnknownAndRepeatedIDs(t *testing.T) {
	s := seededStore(t)
	s.Select("xv", "ghost", "xv", "l1")
	require.Equal(t, []string{"xv", "l1"}, s.Selection())
	require.True(t, s.IsSelected("l1"))
	require.False(t, s.IsSelected("ghost"))
}

func TestSelectionEditing(t *testing.T) {
	s := seededStore(t)
	s.Select("tk")
	s.AddToSelection("p", "tk")
	require.Equal(t, []string{"tk", "p"}, s.Selection())

	s.RemoveFromSelection("tk", "unknown")
	require.Equal(t, []string{"p"}, s.Selection())

	s.ClearSelection()
	require.Empty(t, s.Selection())
}

func TestSelectAllCoversNodesOnly(t *testing.T) {
	s := seededStore(t)
	s.SelectAll()
	require.ElementsMatch(t, []string{"tk", "xv", "p"}, s.Selection())
}

func TestSelectionDoesNotTouchHistoryOrDirty(t *testing.T) {
	s := seededStore(t)
	s.MarkSaved()
	version := s.Version()
	past, _ := s.HistoryDepth()

	s.SelectAll()
	s.ClearSelection()

	require.Equal(t, version, s.Version())
	gotPast, _ := s.HistoryDepth()
	require.Equal(t, past, gotPast)
	require.False(t, s.IsDirty())
}

func TestSelectionIsPrunedAfterRemoval(t *testing.T) {
	s := seededStore(t)
	s.Select("tk", "l1", "p")
	s.RemoveEquipment("tk")
	require.Equal(t, []string{"p"}, s.Selection(), "l1 cascaded with tk")
}

func TestUndoClearsSelection(t *testing.T) {
	s := seededStore(t)
	s.Select("p")
	require.True(t, s.Undo())
	require.Empty(t, s.Selection())
}

func TestSelectionReturnsCopy(t *testing.T) {
	s := seededStore(t)
	s.Select("tk")
	sel := s.Selection()
	sel[0] = "changed"
	require.Equal(t, []string{"tk"}, s.Selection())
}
