package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore keeps attachment contents on local disk. Stored names are uuids
// so caller-supplied file names never touch the filesystem.
type BlobStore struct {
	dir string
}

// NewBlobStore creates the storage directory if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob dir %q: %w", dir, err)
	}
	return &BlobStore{dir: dir}, nil
}

// Store writes the contents under a fresh uuid name, keeping the original
// extension for content sniffing, and returns the opaque path handle.
func (b *BlobStore) Store(_ context.Context, fileName string, r io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(fileName)
	path := filepath.Join(b.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating blob %q: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing blob %q: %w", name, err)
	}
	return name, nil
}

// Open returns the contents of a stored blob.
func (b *BlobStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(b.dir, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("opening blob %q: %w", path, err)
	}
	return f, nil
}

// Remove deletes a stored blob. Removing a missing blob is not an error.
func (b *BlobStore) Remove(path string) error {
	err := os.Remove(filepath.Join(b.dir, filepath.Base(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blob %q: %w", path, err)
	}
	return nil
}
