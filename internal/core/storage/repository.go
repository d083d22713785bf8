package storage

import (
	"context"
	"errors"
	"io"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
)

// ErrNotFound is returned when a record or attachment does not exist.
var ErrNotFound = errors.New("record not found")

// ListFilter narrows and orders a stored listing. Zero values mean
// "unfiltered". Dates use the v1.DateLayout wire format.
type ListFilter struct {
	Search     string
	States     []string
	Categories []string
	DateStart  string
	DateEnd    string

	SortBy  string
	SortDir string
	Page    int
	Size    int
}

// ActivityPage is one page of a filtered listing.
type ActivityPage struct {
	Activities    []*v1.Activity
	TotalElements int64
	TotalPages    int
}

// ActivityStore defines the interface for storing and retrieving activities.
type ActivityStore interface {
	// ScanAll returns every stored activity. The dynamic query engine
	// filters and aggregates in process over this scan.
	ScanAll(ctx context.Context) ([]*v1.Activity, error)

	GetByID(ctx context.Context, id int64) (*v1.Activity, error)

	// Save inserts when ID is zero (assigning the new ID on the record) and
	// updates otherwise. Updating a missing record returns ErrNotFound.
	Save(ctx context.Context, a *v1.Activity) error

	DeleteByID(ctx context.Context, id int64) error

	// BulkSave persists all records atomically.
	BulkSave(ctx context.Context, activities []*v1.Activity) error

	// BulkDeleteByIDs removes all listed records atomically. Missing IDs are
	// ignored.
	BulkDeleteByIDs(ctx context.Context, ids []int64) error

	// FindPage pushes filtering, sorting and pagination down to the store.
	FindPage(ctx context.Context, filter ListFilter) (*ActivityPage, error)

	// DistinctValues returns the distinct non-empty values of one field,
	// sorted ascending.
	DistinctValues(ctx context.Context, field string) ([]string, error)
}

// FileStore persists attachment metadata.
type FileStore interface {
	// SaveFile inserts the metadata row, assigning ID.
	SaveFile(ctx context.Context, meta *v1.FileMetadata) error

	FilesByActivity(ctx context.Context, activityID int64) ([]*v1.FileMetadata, error)

	FileByID(ctx context.Context, id int64) (*v1.FileMetadata, error)

	DeleteFile(ctx context.Context, id int64) error
}

// BlobStore holds attachment contents. Paths are opaque handles produced by
// Store.
type BlobStore interface {
	Store(ctx context.Context, fileName string, r io.Reader) (path string, err error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}
