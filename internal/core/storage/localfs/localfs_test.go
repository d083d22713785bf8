package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStore_RoundTrip(t *testing.T) {
	store, err := NewBlobStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Store(context.Background(), "report.pdf", strings.NewReader("contents"))
	require.NoError(t, err)
	require.Equal(t, ".pdf", filepath.Ext(path))
	require.NotContains(t, path, "report") // caller names never reach disk

	rc, err := store.Open(path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "contents", string(data))
}

func TestBlobStore_UniqueNames(t *testing.T) {
	store, err := NewBlobStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Store(context.Background(), "same.txt", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Store(context.Background(), "same.txt", strings.NewReader("b"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestBlobStore_Remove(t *testing.T) {
	store, err := NewBlobStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Store(context.Background(), "x.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	_, err = store.Open(path)
	require.Error(t, err)

	// Removing a missing blob is not an error.
	require.NoError(t, store.Remove(path))
}

func TestBlobStore_OpenIgnoresDirectoryTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBlobStore(dir)
	require.NoError(t, err)

	secret := filepath.Join(filepath.Dir(dir), "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o644))

	_, err = store.Open("../secret.txt")
	require.Error(t, err)
}

func TestNewBlobStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "blobs")
	_, err := NewBlobStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
