package activities

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	"github.com/powergrid-labs/gridtrack/internal/broadcast"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/schema"
	"github.com/powergrid-labs/gridtrack/internal/core/storage"
)

// Publisher receives a change event after every successful mutation.
type Publisher interface {
	Publish(ev broadcast.ChangeEvent)
}

// OrderChange assigns one record a new position.
type OrderChange struct {
	ID         int64 `json:"id"`
	OrderIndex int   `json:"orderIndex"`
}

// Upload is one incoming attachment.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Service is the write path: validates, persists, cascades attachments and
// publishes a change event per successful mutation.
type Service struct {
	store     storage.ActivityStore
	files     storage.FileStore
	blobs     storage.BlobStore
	publisher Publisher
	window    v1.DateWindow
}

func NewService(
	store storage.ActivityStore,
	files storage.FileStore,
	blobs storage.BlobStore,
	publisher Publisher,
	window v1.DateWindow,
) *Service {
	if store == nil {
		panic("activities: store must not be nil")
	}
	if files == nil {
		panic("activities: file store must not be nil")
	}
	if publisher == nil {
		panic("activities: publisher must not be nil")
	}
	return &Service{
		store:     store,
		files:     files,
		blobs:     blobs,
		publisher: publisher,
		window:    window,
	}
}

// Create validates and inserts a new record.
func (s *Service) Create(ctx context.Context, a *v1.Activity) error {
	a.ID = 0
	if err := a.Validate(s.window); err != nil {
		return err
	}
	if err := s.store.Save(ctx, a); err != nil {
		return err
	}

	slog.Info("Activity created", "activity_id", a.ID, "state", a.State)
	s.publisher.Publish(broadcast.Added(a, nil))
	return nil
}

// Update replaces a record in full. Returns storage.ErrNotFound for unknown
// ids.
func (s *Service) Update(ctx context.Context, a *v1.Activity) error {
	if err := a.Validate(s.window); err != nil {
		return err
	}
	if err := s.store.Save(ctx, a); err != nil {
		return err
	}

	slog.Info("Activity updated", "activity_id", a.ID)
	s.publisher.Publish(broadcast.Updated(a, s.attachments(ctx, a.ID)))
	return nil
}

// UpdateField applies one inline field edit, driven by the field table.
func (s *Service) UpdateField(ctx context.Context, id int64, field string, value interface{}) (*v1.Activity, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyField(a, field, value); err != nil {
		return nil, err
	}
	if err := a.Validate(s.window); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, a); err != nil {
		return nil, err
	}

	slog.Info("Activity field updated", "activity_id", id, "field", field)
	s.publisher.Publish(broadcast.Updated(a, s.attachments(ctx, id)))
	return a, nil
}

// BulkUpdate applies a sparse field map to every listed record, persisting
// all of them atomically.
func (s *Service) BulkUpdate(ctx context.Context, ids []int64, updates map[string]interface{}) ([]*v1.Activity, error) {
	if len(ids) == 0 {
		return nil, httperr.NewValidation("ids", "", "no activities selected")
	}
	if len(updates) == 0 {
		return nil, httperr.NewValidation("updates", "", "no field updates provided")
	}

	// Apply updates in a stable field order so the first invalid field
	// reported does not depend on map iteration.
	fields := make([]string, 0, len(updates))
	for f := range updates {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	activities := make([]*v1.Activity, 0, len(ids))
	for _, id := range ids {
		a, err := s.store.GetByID(ctx, id)
		if err != nil {
			if err == storage.ErrNotFound {
				return nil, httperr.NewValidation("ids", strconv.FormatInt(id, 10), "activity not found")
			}
			return nil, err
		}
		for _, f := range fields {
			if err := applyField(a, f, updates[f]); err != nil {
				return nil, err
			}
		}
		if err := a.Validate(s.window); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	if err := s.store.BulkSave(ctx, activities); err != nil {
		return nil, err
	}

	slog.Info("Activities bulk updated", "count", len(activities), "fields", fields)
	s.publisher.Publish(broadcast.BulkUpdated(activities))
	return activities, nil
}

// Delete removes one record, cascading its attachments best-effort first.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.removeAttachments(ctx, id)

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	slog.Info("Activity deleted", "activity_id", id)
	s.publisher.Publish(broadcast.Deleted([]int64{id}))
	return nil
}

// BulkDelete removes all listed records. Missing ids are ignored.
func (s *Service) BulkDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return httperr.NewValidation("ids", "", "no activities selected")
	}

	for _, id := range ids {
		s.removeAttachments(ctx, id)
	}
	if err := s.store.BulkDeleteByIDs(ctx, ids); err != nil {
		return err
	}

	slog.Info("Activities bulk deleted", "count", len(ids))
	s.publisher.Publish(broadcast.Deleted(ids))
	return nil
}

// Reorder assigns new order indexes and persists all touched records.
func (s *Service) Reorder(ctx context.Context, changes []OrderChange) ([]*v1.Activity, error) {
	if len(changes) == 0 {
		return nil, httperr.NewValidation("changes", "", "no order changes provided")
	}

	activities := make([]*v1.Activity, 0, len(changes))
	for _, ch := range changes {
		a, err := s.store.GetByID(ctx, ch.ID)
		if err != nil {
			if err == storage.ErrNotFound {
				return nil, httperr.NewValidation("id", strconv.FormatInt(ch.ID, 10), "activity not found")
			}
			return nil, err
		}
		a.OrderIndex = ch.OrderIndex
		activities = append(activities, a)
	}

	if err := s.store.BulkSave(ctx, activities); err != nil {
		return nil, err
	}

	slog.Info("Activities reordered", "count", len(activities))
	s.publisher.Publish(broadcast.Reordered(activities))
	return activities, nil
}

// AttachFiles stores uploads for one record and returns the new metadata.
func (s *Service) AttachFiles(ctx context.Context, activityID int64, uploads []Upload) ([]*v1.FileMetadata, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("attachment storage is not configured")
	}
	if len(uploads) == 0 {
		return nil, httperr.NewValidation("files", "", "no files provided")
	}

	a, err := s.store.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	saved := make([]*v1.FileMetadata, 0, len(uploads))
	for _, up := range uploads {
		if strings.TrimSpace(up.FileName) == "" {
			return nil, httperr.NewValidation("fileName", "", "file name must not be empty")
		}
		path, err := s.blobs.Store(ctx, up.FileName, up.Content)
		if err != nil {
			return nil, fmt.Errorf("storing attachment %q: %w", up.FileName, err)
		}
		meta := &v1.FileMetadata{
			ActivityID:  activityID,
			FileName:    up.FileName,
			ContentType: up.ContentType,
			FileSize:    up.Size,
			StoredPath:  path,
		}
		if err := s.files.SaveFile(ctx, meta); err != nil {
			if rmErr := s.blobs.Remove(path); rmErr != nil {
				slog.Warn("Orphaned blob after metadata failure", "path", path, "error", rmErr)
			}
			return nil, err
		}
		saved = append(saved, meta)
	}

	slog.Info("Attachments stored", "activity_id", activityID, "count", len(saved))
	s.publisher.Publish(broadcast.Updated(a, s.attachments(ctx, activityID)))
	return saved, nil
}

// OpenFile returns an attachment's metadata and contents. The caller closes
// the reader.
func (s *Service) OpenFile(ctx context.Context, fileID int64) (*v1.FileMetadata, io.ReadCloser, error) {
	meta, err := s.files.FileByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if s.blobs == nil {
		return nil, nil, fmt.Errorf("attachment storage is not configured")
	}
	rc, err := s.blobs.Open(meta.StoredPath)
	if err != nil {
		return nil, nil, err
	}
	return meta, rc, nil
}

// DeleteFile removes one attachment (blob best-effort, then metadata).
func (s *Service) DeleteFile(ctx context.Context, fileID int64) error {
	meta, err := s.files.FileByID(ctx, fileID)
	if err != nil {
		return err
	}

	if s.blobs != nil {
		if err := s.blobs.Remove(meta.StoredPath); err != nil {
			slog.Warn("Failed to remove attachment blob", "file_id", fileID, "error", err)
		}
	}
	if err := s.files.DeleteFile(ctx, fileID); err != nil {
		return err
	}

	slog.Info("Attachment deleted", "file_id", fileID, "activity_id", meta.ActivityID)
	if a, err := s.store.GetByID(ctx, meta.ActivityID); err == nil {
		s.publisher.Publish(broadcast.Updated(a, s.attachments(ctx, meta.ActivityID)))
	}
	return nil
}

// attachments lists a record's attachment metadata, tolerating store errors.
func (s *Service) attachments(ctx context.Context, activityID int64) []*v1.FileMetadata {
	files, err := s.files.FilesByActivity(ctx, activityID)
	if err != nil {
		slog.Warn("Failed to list attachments", "activity_id", activityID, "error", err)
		return nil
	}
	return files
}

// removeAttachments deletes a record's attachments best-effort. Deletion of
// the record itself must not fail because a blob is already gone.
func (s *Service) removeAttachments(ctx context.Context, activityID int64) {
	files, err := s.files.FilesByActivity(ctx, activityID)
	if err != nil {
		slog.Warn("Failed to list attachments for cascade", "activity_id", activityID, "error", err)
		return
	}
	for _, f := range files {
		if s.blobs != nil {
			if err := s.blobs.Remove(f.StoredPath); err != nil {
				slog.Warn("Failed to remove attachment blob", "file_id", f.ID, "error", err)
			}
		}
		if err := s.files.DeleteFile(ctx, f.ID); err != nil && err != storage.ErrNotFound {
			slog.Warn("Failed to remove attachment metadata", "file_id", f.ID, "error", err)
		}
	}
}

// applyField assigns one field from a decoded JSON value, enforcing the field
// table's kinds. String fields reject empty values; numeric and date fields
// rely on Validate for range checks.
func applyField(a *v1.Activity, fieldName string, value interface{}) error {
	field, ok := schema.Lookup(fieldName)
	if !ok {
		return httperr.NewValidation(fieldName, "", "unknown field")
	}

	switch field.Kind {
	case schema.KindNumeric:
		n, err := toInt(value)
		if err != nil {
			return httperr.NewValidation(fieldName, fmt.Sprintf("%v", value), "must be a whole number")
		}
		field.SetInt(a, n)

	case schema.KindDate:
		str, ok := value.(string)
		if !ok {
			return httperr.NewValidation(fieldName, fmt.Sprintf("%v", value), "must be a date string")
		}
		field.SetString(a, strings.TrimSpace(str))

	default:
		str, ok := value.(string)
		if !ok {
			return httperr.NewValidation(fieldName, fmt.Sprintf("%v", value), "must be a string")
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return httperr.NewValidation(fieldName, "", "must not be empty")
		}
		field.SetString(a, str)
	}
	return nil
}

// toInt accepts the shapes a JSON number arrives in.
func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not a whole number: %v", v)
		}
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("unsupported number type %T", value)
	}
}
