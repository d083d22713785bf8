package reporting

import (
	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	"github.com/powergrid-labs/gridtrack/internal/core/query"
	"github.com/shopspring/decimal"
)

// CalculateRequest is the body of POST /v1/query/calculate.
type CalculateRequest struct {
	Aggregates []query.AggregateSpec `json:"aggregates"`
	GroupBy    []string              `json:"groupBy"`
	Conditions []query.Condition     `json:"conditions"`
}

// DateRangeRequest is the body of POST /v1/query/date-range. The three
// equality filters are combined with FilterOperator (AND or OR) and conjoined
// with the date window; Conditions chain on top with their own connectives.
type DateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`

	State         string `json:"state"`
	ActivityType  string `json:"activityType"`
	EventCategory string `json:"eventCategory"`
	// FilterOperator is AND (default) or OR.
	FilterOperator string `json:"filterOperator"`

	Conditions []query.Condition `json:"conditions"`

	SortBy  string `json:"sortBy"`
	SortDir string `json:"sortDir"`
	Page    int    `json:"page"`
	Size    int    `json:"size"`
}

// BatchQueryInput is one sub-query of POST /v1/query/batch. Either a named
// preset or inline state/category values; Operator is AND, OR or NOT.
type BatchQueryInput struct {
	Preset        string `json:"preset,omitempty"`
	State         string `json:"state"`
	EventCategory string `json:"eventCategory"`
	Operator      string `json:"operator"`
}

// BatchQueryResult is one sub-query's outcome. Failures stay local to the
// sub-query: ErrorMessage is set and the totals are zero.
type BatchQueryResult struct {
	Query             BatchQueryInput `json:"query"`
	Activities        []*v1.Activity  `json:"activities"`
	TotalActivities   int             `json:"totalActivities"`
	TotalParticipants int             `json:"totalParticipants"`
	ExecutionTimeMs   int64           `json:"executionTimeMs"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
}

// DashboardStats is the payload of GET /v1/dashboard/stats.
type DashboardStats struct {
	TotalActivities   int64            `json:"totalActivities"`
	TotalParticipants int64            `json:"totalParticipants"`
	AvgParticipants   decimal.Decimal  `json:"avgParticipants"`
	UniqueStates      int              `json:"uniqueStates"`
	DateCounts        map[string]int64 `json:"dateCounts"`
	ParticipantCounts map[string]int64 `json:"participantCounts"`
	CategoryCounts    map[string]int64 `json:"categoryCounts"`
}

// Summary is the payload of GET /v1/dashboard/summary.
type Summary struct {
	TotalActivities   int64 `json:"totalActivities"`
	TotalParticipants int64 `json:"totalParticipants"`
}

// Suggestion is the payload of GET /v1/dashboard/suggestion: the
// highest-scoring event date inside the acceptance window.
type Suggestion struct {
	SuggestedDate     string  `json:"suggestedDate"`
	Score             float64 `json:"score"`
	Reason            string  `json:"reason"`
	TotalParticipants int     `json:"totalParticipants"`
	ActivityCount     int     `json:"activityCount"`
}
