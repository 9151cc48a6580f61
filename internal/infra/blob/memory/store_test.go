package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"pidcore/internal/blob/core"
)

func TestStoreMissingKeys(t *testing.T) {
	store := New()
	ctx := context.Background()
	_, err := store.Head(ctx, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
	_, _, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
	ok, err := store.Delete(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreIsolatesCallers(t *testing.T) {
	store := New()
	ctx := context.Background()
	md := map[string]string{"format": "json"}
	_, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{Metadata: md})
	require.NoError(t, err)
	md["format"] = "yaml"

	info, rc, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "json", info.Metadata["format"])
	info.Metadata["format"] = "changed"
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "v", string(body))

	head, err := store.Head(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "json", head.Metadata["format"])
	require.NotEmpty(t, head.ETag)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("fail") }

func TestStorePutReadErrorAndDriver(t *testing.T) {
	store := New()
	require.Equal(t, core.DriverMemory, store.Driver())
	_, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{})
	require.Error(t, err)
	_, err = store.Head(context.Background(), "bad")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = store.PresignURL(context.Background(), "k", core.SignedURLOptions{})
	require.ErrorIs(t, err, core.ErrUnsupported)
}
