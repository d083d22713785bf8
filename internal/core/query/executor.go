package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/schema"
)

// Scanner is the slice of the record store the executor needs.
type Scanner interface {
	ScanAll(ctx context.Context) ([]*v1.Activity, error)
}

// Request describes one dynamic query. Conditions are compiled with
// BuildPredicate; a non-nil Predicate is conjoined with them (callers use it
// to pre-bind filters like date ranges). With Aggregates present the matches
// are aggregated, otherwise sorted and paginated.
type Request struct {
	Predicate  Predicate
	Conditions []Condition

	Aggregates []AggregateSpec
	GroupBy    []string

	SortBy  string
	SortDir string
	Page    int
	Size    int
}

// Result is the uniform response payload. Evaluation failures never escape as
// errors: ErrorMessage is set and Activities stays an empty slice, so clients
// always get the same shape.
type Result struct {
	Activities      []*v1.Activity   `json:"activities"`
	Aggregates      *AggregateResult `json:"aggregates,omitempty"`
	RowCount        int              `json:"rowCount"`
	TotalPages      int              `json:"totalPages,omitempty"`
	ExecutionTimeMs int64            `json:"executionTimeMs"`
	ErrorMessage    string           `json:"errorMessage,omitempty"`
}

// Executor runs dynamic queries over a full store scan.
type Executor struct {
	store Scanner
}

func NewExecutor(store Scanner) *Executor {
	return &Executor{store: store}
}

// Execute runs req to completion. The returned Result is never nil and always
// carries a non-nil Activities slice and the elapsed execution time.
func (e *Executor) Execute(ctx context.Context, req Request) *Result {
	start := time.Now()
	res := &Result{Activities: []*v1.Activity{}}
	defer func() {
		res.ExecutionTimeMs = time.Since(start).Milliseconds()
	}()

	records, err := e.store.ScanAll(ctx)
	if err != nil {
		slog.Error("[Query] Store scan failed", "error", err)
		res.ErrorMessage = "failed to read activities: " + err.Error()
		return res
	}

	pred, err := BuildPredicate(req.Conditions)
	if err != nil {
		res.ErrorMessage = err.Error()
		return res
	}
	if req.Predicate != nil {
		if pred != nil {
			pred = And(req.Predicate, pred)
		} else {
			pred = req.Predicate
		}
	}

	matched := records
	if pred != nil {
		matched = make([]*v1.Activity, 0, len(records))
		for _, rec := range records {
			if pred(rec) {
				matched = append(matched, rec)
			}
		}
	}
	res.RowCount = len(matched)

	if len(req.Aggregates) > 0 {
		if err := ValidateAggregates(req.Aggregates, req.GroupBy); err != nil {
			res.ErrorMessage = err.Error()
			res.RowCount = 0
			return res
		}
		res.Aggregates = Aggregate(matched, req.Aggregates, req.GroupBy)
		return res
	}

	if err := sortActivities(matched, req.SortBy, req.SortDir); err != nil {
		res.ErrorMessage = err.Error()
		res.RowCount = 0
		return res
	}

	res.Activities, res.TotalPages = paginate(matched, req.Page, req.Size)
	return res
}

// sortActivities orders records in place. Empty sortBy keeps scan order.
func sortActivities(records []*v1.Activity, sortBy, sortDir string) error {
	if sortBy == "" {
		return nil
	}

	less, err := lessFunc(sortBy)
	if err != nil {
		return err
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

func lessFunc(sortBy string) (func(a, b *v1.Activity) bool, error) {
	switch sortBy {
	case "id":
		return func(a, b *v1.Activity) bool { return a.ID < b.ID }, nil
	case "orderIndex":
		return func(a, b *v1.Activity) bool { return a.OrderIndex < b.OrderIndex }, nil
	}

	field, ok := schema.Lookup(sortBy)
	if !ok {
		return nil, httperr.NewValidation("sortBy", sortBy, "unknown sort field")
	}
	if field.Kind == schema.KindNumeric {
		return func(a, b *v1.Activity) bool { return field.IntValue(a) < field.IntValue(b) }, nil
	}
	// Dates in YYYY-MM-DD order correctly as strings; empty sorts first.
	return func(a, b *v1.Activity) bool { return field.StringValue(a) < field.StringValue(b) }, nil
}

// paginate slices one page out of records. Size <= 0 returns everything on a
// single page; the offset is clamped to the available record count.
func paginate(records []*v1.Activity, page, size int) ([]*v1.Activity, int) {
	if size <= 0 {
		return records, 1
	}
	if page < 0 {
		page = 0
	}

	totalPages := (len(records) + size - 1) / size
	offset := page * size
	if offset > len(records) {
		offset = len(records)
	}
	end := offset + size
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end], totalPages
}
