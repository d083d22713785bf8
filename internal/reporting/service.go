package reporting

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	"github.com/powergrid-labs/gridtrack/internal/core/query"
	"github.com/powergrid-labs/gridtrack/internal/core/storage"
)

// batchConcurrency bounds how many batch sub-queries run at once.
const batchConcurrency = 4

// Service is the read path: listings, dynamic queries, dashboards.
type Service struct {
	store    storage.ActivityStore
	executor *query.Executor
	presets  *PresetRepository
	window   v1.DateWindow
}

func NewService(store storage.ActivityStore, presets *PresetRepository, window v1.DateWindow) *Service {
	if store == nil {
		panic("reporting: store must not be nil")
	}
	if presets == nil {
		presets = &PresetRepository{presets: map[string]Preset{}}
	}
	return &Service{
		store:    store,
		executor: query.NewExecutor(store),
		presets:  presets,
		window:   window,
	}
}

// List pushes a filtered, sorted, paginated listing down to the store.
func (s *Service) List(ctx context.Context, filter storage.ListFilter) (*storage.ActivityPage, error) {
	return s.store.FindPage(ctx, filter)
}

// Get returns one record or storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*v1.Activity, error) {
	return s.store.GetByID(ctx, id)
}

// Distinct returns the distinct non-empty values of one field.
func (s *Service) Distinct(ctx context.Context, field string) ([]string, error) {
	return s.store.DistinctValues(ctx, field)
}

// Calculate runs a dynamic aggregation. Validation failures come back inside
// the result payload, never as a Go error.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) *query.Result {
	return s.executor.Execute(ctx, query.Request{
		Conditions: req.Conditions,
		Aggregates: req.Aggregates,
		GroupBy:    req.GroupBy,
	})
}

// DateRange runs a date-window query with optional equality filters and a
// dynamic condition chain. The query itself executes on a background worker
// detached from the request context; the caller awaits its result.
func (s *Service) DateRange(ctx context.Context, req DateRangeRequest) *query.Result {
	pred, errMsg := s.dateRangePredicate(req)
	if errMsg != "" {
		return &query.Result{Activities: []*v1.Activity{}, ErrorMessage: errMsg}
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "orderIndex"
	}
	qreq := query.Request{
		Predicate:  pred,
		Conditions: req.Conditions,
		SortBy:     sortBy,
		SortDir:    req.SortDir,
		Page:       req.Page,
		Size:       req.Size,
	}

	done := make(chan *query.Result, 1)
	go func() {
		// Runs to completion even if the caller goes away.
		done <- s.executor.Execute(context.WithoutCancel(ctx), qreq)
	}()
	return <-done
}

// dateRangePredicate compiles the date window plus the optional equality
// filters. The second return value is a user-facing error message ("" on
// success).
func (s *Service) dateRangePredicate(req DateRangeRequest) (query.Predicate, string) {
	if strings.TrimSpace(req.StartDate) == "" || strings.TrimSpace(req.EndDate) == "" {
		return nil, "startDate and endDate are required"
	}
	start, err := time.Parse(v1.DateLayout, req.StartDate)
	if err != nil {
		return nil, "invalid startDate: must be a valid date in YYYY-MM-DD format"
	}
	end, err := time.Parse(v1.DateLayout, req.EndDate)
	if err != nil {
		return nil, "invalid endDate: must be a valid date in YYYY-MM-DD format"
	}
	if end.Before(start) {
		return nil, "endDate must not be before startDate"
	}

	pred, err := query.BuildPredicate([]query.Condition{
		{Field: "eventDate", Operator: ">=", Value: req.StartDate, Logical: query.LogicalAnd},
		{Field: "eventDate", Operator: "<=", Value: req.EndDate},
	})
	if err != nil {
		return nil, err.Error()
	}

	var filters []query.Predicate
	for _, f := range []struct{ field, value string }{
		{"state", req.State},
		{"activityType", req.ActivityType},
		{"eventCategory", req.EventCategory},
	} {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		p, err := query.BuildPredicate([]query.Condition{
			{Field: f.field, Operator: "=", Value: f.value},
		})
		if err != nil {
			return nil, err.Error()
		}
		filters = append(filters, p)
	}

	if len(filters) > 0 {
		switch strings.ToUpper(strings.TrimSpace(req.FilterOperator)) {
		case "", "AND":
			pred = query.And(append([]query.Predicate{pred}, filters...)...)
		case "OR":
			pred = query.And(pred, query.Or(filters...))
		default:
			return nil, "unsupported filter operator: " + req.FilterOperator
		}
	}

	return pred, ""
}

// Batch executes the sub-queries concurrently. Each sub-query's failure stays
// inside its own result slot.
func (s *Service) Batch(ctx context.Context, queries []BatchQueryInput) []BatchQueryResult {
	results := make([]BatchQueryResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i := range queries {
		i := i
		g.Go(func() error {
			results[i] = s.runBatchQuery(gctx, queries[i])
			return nil
		})
	}
	g.Wait()

	return results
}

func (s *Service) runBatchQuery(ctx context.Context, in BatchQueryInput) BatchQueryResult {
	start := time.Now()
	out := BatchQueryResult{Query: in, Activities: []*v1.Activity{}}
	defer func() {
		out.ExecutionTimeMs = time.Since(start).Milliseconds()
	}()

	if in.Preset != "" {
		p, ok := s.presets.Get(in.Preset)
		if !ok {
			out.ErrorMessage = "unknown preset: " + in.Preset
			return out
		}
		if in.State == "" {
			in.State = p.State
		}
		if in.EventCategory == "" {
			in.EventCategory = p.EventCategory
		}
		if in.Operator == "" {
			in.Operator = p.Operator
		}
		out.Query = in
	}

	op := strings.ToUpper(strings.TrimSpace(in.Operator))
	if op == "" {
		op = "AND"
	}
	if op != "AND" && op != "OR" && op != "NOT" {
		out.ErrorMessage = "unsupported operator: " + in.Operator
		return out
	}

	records, err := s.store.ScanAll(ctx)
	if err != nil {
		out.ErrorMessage = "failed to read activities: " + err.Error()
		return out
	}

	for _, a := range records {
		if !matchesStateCategory(a, in.State, in.EventCategory, op) {
			continue
		}
		out.Activities = append(out.Activities, a)
		out.TotalParticipants += a.NumberOfParticipants
	}
	out.TotalActivities = len(out.Activities)
	return out
}

// matchesStateCategory applies the state/category connective. NOT keeps its
// historical meaning: neither the state nor the category may match.
func matchesStateCategory(a *v1.Activity, state, category, op string) bool {
	switch op {
	case "OR":
		return a.State == state || a.EventCategory == category
	case "NOT":
		return a.State != state && a.EventCategory != category
	default:
		return a.State == state && a.EventCategory == category
	}
}
