package query

import (
	"strconv"
	"strings"
	"time"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
	"github.com/powergrid-labs/gridtrack/internal/core/schema"
)

// Logical connectives between adjacent conditions.
const (
	LogicalAnd = "AND"
	LogicalOr  = "OR"
	LogicalNot = "NOT"
)

// Condition is one comparison in a dynamic filter chain. Logical names the
// connective between THIS condition's result and the NEXT condition, so the
// last condition's Logical is ignored.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
	Logical  string `json:"logical"`
}

// Predicate is a compiled record filter.
type Predicate func(*v1.Activity) bool

// And returns the conjunction of the given predicates.
func And(ps ...Predicate) Predicate {
	return func(a *v1.Activity) bool {
		for _, p := range ps {
			if !p(a) {
				return false
			}
		}
		return true
	}
}

// Or returns the disjunction of the given predicates.
func Or(ps ...Predicate) Predicate {
	return func(a *v1.Activity) bool {
		for _, p := range ps {
			if p(a) {
				return true
			}
		}
		return false
	}
}

// Not returns the negation of p.
func Not(p Predicate) Predicate {
	return func(a *v1.Activity) bool { return !p(a) }
}

// BuildPredicate compiles a condition chain into a single predicate using a
// left fold: the combined result of conditions [0..i-1] is joined with
// condition i by the Logical of condition i-1. OR forms a disjunction, NOT
// conjoins the negation of the next condition, anything else (including "")
// conjoins. An empty chain compiles to nil (match everything).
//
// Every condition is type-checked against the field table before use; the
// first illegal field/operator/value aborts compilation with a
// ValidationError.
func BuildPredicate(conds []Condition) (Predicate, error) {
	if len(conds) == 0 {
		return nil, nil
	}

	result, err := compileCondition(conds[0])
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(conds); i++ {
		next, err := compileCondition(conds[i])
		if err != nil {
			return nil, err
		}

		switch strings.ToUpper(strings.TrimSpace(conds[i-1].Logical)) {
		case LogicalOr:
			result = Or(result, next)
		case LogicalNot:
			result = And(result, Not(next))
		default:
			result = And(result, next)
		}
	}

	return result, nil
}

// compileCondition type-checks one condition and compiles it to a predicate.
func compileCondition(c Condition) (Predicate, error) {
	field, ok := schema.Lookup(c.Field)
	if !ok {
		return nil, httperr.NewValidation(c.Field, c.Value, "unknown field")
	}
	if !field.Allows(c.Operator) {
		return nil, httperr.NewValidation(c.Field, c.Operator,
			"operator not supported for "+field.Kind.String()+" field")
	}

	switch field.Kind {
	case schema.KindNumeric:
		want, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil {
			return nil, httperr.NewValidation(c.Field, c.Value, "must be a whole number")
		}
		return func(a *v1.Activity) bool {
			return compareInts(field.IntValue(a), want, c.Operator)
		}, nil

	case schema.KindDate:
		want, err := time.Parse(v1.DateLayout, strings.TrimSpace(c.Value))
		if err != nil {
			return nil, httperr.NewValidation(c.Field, c.Value, "must be a valid date in YYYY-MM-DD format")
		}
		return func(a *v1.Activity) bool {
			raw := field.StringValue(a)
			if raw == "" {
				return false
			}
			got, err := time.Parse(v1.DateLayout, raw)
			if err != nil {
				// Unparsable stored date never matches, same as absent.
				return false
			}
			return compareTimes(got, want, c.Operator)
		}, nil

	default:
		want := c.Value
		return func(a *v1.Activity) bool {
			got := field.StringValue(a)
			if c.Operator == schema.OpNe {
				return got != want
			}
			return got == want
		}, nil
	}
}

func compareInts(got, want int, op string) bool {
	switch op {
	case schema.OpEq:
		return got == want
	case schema.OpNe:
		return got != want
	case schema.OpLt:
		return got < want
	case schema.OpGt:
		return got > want
	case schema.OpLe:
		return got <= want
	case schema.OpGe:
		return got >= want
	}
	return false
}

func compareTimes(got, want time.Time, op string) bool {
	switch op {
	case schema.OpEq:
		return got.Equal(want)
	case schema.OpNe:
		return !got.Equal(want)
	case schema.OpLt:
		return got.Before(want)
	case schema.OpGt:
		return got.After(want)
	case schema.OpLe:
		return !got.After(want)
	case schema.OpGe:
		return !got.Before(want)
	}
	return false
}
