package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/schema"
	"github.com/powergrid-labs/gridtrack/internal/core/storage"
)

// Store is an in-memory ActivityStore and FileStore. It backs unit tests and
// keeps the same observable behavior as the postgres adapter.
type Store struct {
	mu         sync.RWMutex
	activities map[int64]*v1.Activity
	files      map[int64]*v1.FileMetadata
	nextID     int64
	nextFileID int64
}

func NewStore() *Store {
	return &Store{
		activities: make(map[int64]*v1.Activity),
		files:      make(map[int64]*v1.FileMetadata),
		nextID:     1,
		nextFileID: 1,
	}
}

func (s *Store) ScanAll(_ context.Context) ([]*v1.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(), nil
}

// snapshot copies all records in id order. Callers hold no lock on the
// returned copies.
func (s *Store) snapshot() []*v1.Activity {
	out := make([]*v1.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetByID(_ context.Context, id int64) (*v1.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) Save(_ context.Context, a *v1.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(a)
}

func (s *Store) saveLocked(a *v1.Activity) error {
	if a.ID == 0 {
		a.ID = s.nextID
		s.nextID++
	} else if _, ok := s.activities[a.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := *a
	s.activities[a.ID] = &cp
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

func (s *Store) BulkSave(_ context.Context, activities []*v1.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range activities {
		if err := s.saveLocked(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) BulkDeleteByIDs(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.activities, id)
	}
	return nil
}

func (s *Store) FindPage(_ context.Context, filter storage.ListFilter) (*storage.ActivityPage, error) {
	s.mu.RLock()
	records := s.snapshot()
	s.mu.RUnlock()

	matched := records[:0]
	for _, a := range records {
		if matchesFilter(a, filter) {
			matched = append(matched, a)
		}
	}

	if err := sortForListing(matched, filter.SortBy, filter.SortDir); err != nil {
		return nil, err
	}

	size := filter.Size
	if size <= 0 {
		size = 20
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}
	total := int64(len(matched))
	offset := page * size
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + size
	if end > len(matched) {
		end = len(matched)
	}

	return &storage.ActivityPage{
		Activities:    matched[offset:end],
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	}, nil
}

func matchesFilter(a *v1.Activity, filter storage.ListFilter) bool {
	if s := strings.TrimSpace(filter.Search); s != "" {
		needle := strings.ToLower(s)
		if !strings.Contains(strings.ToLower(a.State), needle) &&
			!strings.Contains(strings.ToLower(a.EventCategory), needle) &&
			!strings.Contains(strings.ToLower(a.EventDescription), needle) {
			return false
		}
	}
	if len(filter.States) > 0 && !contains(filter.States, a.State) {
		return false
	}
	if len(filter.Categories) > 0 && !contains(filter.Categories, a.EventCategory) {
		return false
	}
	if filter.DateStart != "" && (a.EventDate == "" || a.EventDate < filter.DateStart) {
		return false
	}
	if filter.DateEnd != "" && (a.EventDate == "" || a.EventDate > filter.DateEnd) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func sortForListing(records []*v1.Activity, sortBy, sortDir string) error {
	less := func(a, b *v1.Activity) bool {
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		return a.ID < b.ID
	}

	if sortBy != "" {
		switch sortBy {
		case "id":
			less = func(a, b *v1.Activity) bool { return a.ID < b.ID }
		case "orderIndex":
			less = func(a, b *v1.Activity) bool { return a.OrderIndex < b.OrderIndex }
		default:
			field, ok := schema.Lookup(sortBy)
			if !ok {
				return httperr.NewValidation("sortBy", sortBy, "unknown sort field")
			}
			if field.Kind == schema.KindNumeric {
				less = func(a, b *v1.Activity) bool { return field.IntValue(a) < field.IntValue(b) }
			} else {
				less = func(a, b *v1.Activity) bool { return field.StringValue(a) < field.StringValue(b) }
			}
		}
	}

	desc := strings.EqualFold(sortDir, "desc")
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
	return nil
}

func (s *Store) DistinctValues(_ context.Context, field string) ([]string, error) {
	f, ok := schema.Lookup(field)
	if !ok || f.Kind != schema.KindString {
		return nil, httperr.NewValidation("field", field, "field does not support distinct values")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, a := range s.activities {
		v := strings.TrimSpace(f.StringValue(a))
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

func (s *Store) SaveFile(_ context.Context, meta *v1.FileMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if meta.ID == 0 {
		meta.ID = s.nextFileID
		s.nextFileID++
	}
	cp := *meta
	s.files[meta.ID] = &cp
	return nil
}

func (s *Store) FilesByActivity(_ context.Context, activityID int64) ([]*v1.FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*v1.FileMetadata{}
	for _, f := range s.files {
		if f.ActivityID == activityID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FileByID(_ context.Context, id int64) (*v1.FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *Store) DeleteFile(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.files, id)
	return nil
}
