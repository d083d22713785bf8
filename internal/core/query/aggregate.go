package query

import (
	"strings"

	"github.com/shopspring/decimal"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/schema"
)

// Aggregate functions. Closed set; matched case-insensitively on input.
const (
	FuncCount = "COUNT"
	FuncSum   = "SUM"
	FuncAvg   = "AVG"
	FuncMin   = "MIN"
	FuncMax   = "MAX"
)

// NullGroup is the bucket label for records whose group field is empty.
const NullGroup = "N/A"

// AggregateSpec requests one aggregate value over one column.
type AggregateSpec struct {
	Function string `json:"function"`
	Column   string `json:"column"`
}

// Label is the result key for this spec: FUNCTION_column.
func (s AggregateSpec) Label() string {
	return strings.ToUpper(strings.TrimSpace(s.Function)) + "_" + s.Column
}

// AggregateRow is one group's aggregate values.
type AggregateRow struct {
	Groups map[string]string      `json:"groups"`
	Values map[string]interface{} `json:"values"`
}

// AggregateResult carries grouped rows or, without group-by, a flat value map.
type AggregateResult struct {
	Results []AggregateRow         `json:"results,omitempty"`
	Values  map[string]interface{} `json:"values,omitempty"`
}

// reducer defines the fold semantics of a decimal aggregate.
// The planner's hot path is a map lookup, no switch.
type reducer interface {
	// Initial returns the aggregate value after the first record of a group.
	Initial(incoming decimal.Decimal) decimal.Decimal

	// Apply folds an incoming value into an existing aggregate.
	Apply(current, incoming decimal.Decimal) decimal.Decimal
}

var reducers = map[string]reducer{
	FuncSum: sumReducer{},
	FuncMin: minReducer{},
	FuncMax: maxReducer{},
}

type sumReducer struct{}

func (sumReducer) Initial(v decimal.Decimal) decimal.Decimal      { return v }
func (sumReducer) Apply(cur, inc decimal.Decimal) decimal.Decimal { return cur.Add(inc) }

type minReducer struct{}

func (minReducer) Initial(v decimal.Decimal) decimal.Decimal { return v }
func (minReducer) Apply(cur, inc decimal.Decimal) decimal.Decimal {
	if inc.LessThan(cur) {
		return inc
	}
	return cur
}

type maxReducer struct{}

func (maxReducer) Initial(v decimal.Decimal) decimal.Decimal { return v }
func (maxReducer) Apply(cur, inc decimal.Decimal) decimal.Decimal {
	if inc.GreaterThan(cur) {
		return inc
	}
	return cur
}

// ValidateAggregates type-checks every spec and group-by column before any
// aggregation work starts. Legality matrix: COUNT on anything, SUM/AVG on
// numeric columns only, MIN/MAX on numeric and date columns.
func ValidateAggregates(specs []AggregateSpec, groupBy []string) error {
	if len(specs) == 0 {
		return httperr.NewValidation("aggregates", "", "at least one aggregate is required")
	}

	for _, s := range specs {
		fn := strings.ToUpper(strings.TrimSpace(s.Function))
		field, ok := schema.Lookup(s.Column)
		if !ok {
			return httperr.NewValidation(s.Column, "", "unknown aggregate column")
		}

		switch fn {
		case FuncCount:
			// COUNT is legal on every field kind.
		case FuncSum, FuncAvg:
			if field.Kind != schema.KindNumeric {
				return httperr.NewValidation(s.Column, fn,
					"function only supported on numeric columns")
			}
		case FuncMin, FuncMax:
			if field.Kind == schema.KindString {
				return httperr.NewValidation(s.Column, fn,
					"function only supported on numeric and date columns")
			}
		default:
			return httperr.NewValidation("function", s.Function, "unsupported aggregate function")
		}
	}

	for _, g := range groupBy {
		if strings.TrimSpace(g) == "" {
			continue
		}
		if _, ok := schema.Lookup(g); !ok {
			return httperr.NewValidation(g, "", "unknown group-by column")
		}
	}

	return nil
}

// Aggregate computes the requested values over records, optionally grouped.
// Specs must already have passed ValidateAggregates.
func Aggregate(records []*v1.Activity, specs []AggregateSpec, groupBy []string) *AggregateResult {
	groupFields := make([]schema.Field, 0, len(groupBy))
	groupNames := make([]string, 0, len(groupBy))
	for _, g := range groupBy {
		if strings.TrimSpace(g) == "" {
			continue
		}
		f, _ := schema.Lookup(g)
		groupFields = append(groupFields, f)
		groupNames = append(groupNames, g)
	}

	if len(groupFields) == 0 {
		return &AggregateResult{Values: computeValues(records, specs)}
	}

	// Partition preserving first-seen group order.
	var order []string
	buckets := make(map[string][]*v1.Activity)
	keys := make(map[string][]string)
	for _, rec := range records {
		parts := make([]string, len(groupFields))
		for i, f := range groupFields {
			val := f.StringValue(rec)
			if val == "" {
				val = NullGroup
			}
			parts[i] = val
		}
		key := strings.Join(parts, "\x1f")
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
			keys[key] = parts
		}
		buckets[key] = append(buckets[key], rec)
	}

	rows := make([]AggregateRow, 0, len(order))
	for _, key := range order {
		groups := make(map[string]string, len(groupNames))
		for i, name := range groupNames {
			groups[name] = keys[key][i]
		}
		rows = append(rows, AggregateRow{
			Groups: groups,
			Values: computeValues(buckets[key], specs),
		})
	}

	return &AggregateResult{Results: rows}
}

// computeValues evaluates every spec over one bucket of records.
func computeValues(records []*v1.Activity, specs []AggregateSpec) map[string]interface{} {
	values := make(map[string]interface{}, len(specs))
	for _, s := range specs {
		values[s.Label()] = computeValue(records, s)
	}
	return values
}

func computeValue(records []*v1.Activity, s AggregateSpec) interface{} {
	fn := strings.ToUpper(strings.TrimSpace(s.Function))
	field, _ := schema.Lookup(s.Column)

	switch fn {
	case FuncCount:
		return decimal.NewFromInt(countPresent(records, field))

	case FuncSum:
		return sumField(records, field)

	case FuncAvg:
		n := int64(len(records))
		if n == 0 {
			// Average over nothing is 0, not an error.
			return decimal.Zero
		}
		return sumField(records, field).Div(decimal.NewFromInt(n))

	case FuncMin, FuncMax:
		if field.Kind == schema.KindDate {
			return minMaxDate(records, field, fn)
		}
		red := reducers[fn]
		var acc decimal.Decimal
		seen := false
		for _, rec := range records {
			v := decimal.NewFromInt(int64(field.IntValue(rec)))
			if !seen {
				acc = red.Initial(v)
				seen = true
				continue
			}
			acc = red.Apply(acc, v)
		}
		if !seen {
			return NullGroup
		}
		return acc
	}

	return nil
}

// countPresent counts records whose column value is present. Only date fields
// can be absent; every other kind always counts.
func countPresent(records []*v1.Activity, field schema.Field) int64 {
	if field.Kind != schema.KindDate {
		return int64(len(records))
	}
	var n int64
	for _, rec := range records {
		if field.StringValue(rec) != "" {
			n++
		}
	}
	return n
}

func sumField(records []*v1.Activity, field schema.Field) decimal.Decimal {
	red := reducers[FuncSum]
	acc := decimal.Zero
	for _, rec := range records {
		acc = red.Apply(acc, decimal.NewFromInt(int64(field.IntValue(rec))))
	}
	return acc
}

// minMaxDate folds over the non-empty date strings. YYYY-MM-DD compares
// correctly as a plain string.
func minMaxDate(records []*v1.Activity, field schema.Field, fn string) interface{} {
	best := ""
	for _, rec := range records {
		val := field.StringValue(rec)
		if val == "" {
			continue
		}
		if best == "" {
			best = val
			continue
		}
		if fn == FuncMin && val < best {
			best = val
		}
		if fn == FuncMax && val > best {
			best = val
		}
	}
	if best == "" {
		return NullGroup
	}
	return best
}
