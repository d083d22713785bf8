package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
)

func activity(state, category, date string, participants int) *v1.Activity {
	return &v1.Activity{
		State:                state,
		EventCategory:        category,
		EventDate:            date,
		NumberOfParticipants: participants,
	}
}

func TestBuildPredicate_EmptyChain(t *testing.T) {
	pred, err := BuildPredicate(nil)
	require.NoError(t, err)
	require.Nil(t, pred)
}

func TestBuildPredicate_SingleCondition(t *testing.T) {
	pred, err := BuildPredicate([]Condition{
		{Field: "state", Operator: "=", Value: "Kerala"},
	})
	require.NoError(t, err)
	require.True(t, pred(activity("Kerala", "", "", 10)))
	require.False(t, pred(activity("Goa", "", "", 10)))
}

func TestBuildPredicate_LeftFold(t *testing.T) {
	// ((state = Kerala AND participants > 20) OR category = Camp)
	conds := []Condition{
		{Field: "state", Operator: "=", Value: "Kerala", Logical: "AND"},
		{Field: "numberOfParticipants", Operator: ">", Value: "20", Logical: "OR"},
		{Field: "eventCategory", Operator: "=", Value: "Camp"},
	}
	pred, err := BuildPredicate(conds)
	require.NoError(t, err)

	tests := []struct {
		name string
		rec  *v1.Activity
		want bool
	}{
		{"both left conditions hold", activity("Kerala", "Drive", "", 30), true},
		{"left fails but right branch holds", activity("Goa", "Camp", "", 5), true},
		{"only first left condition holds", activity("Kerala", "Drive", "", 10), false},
		{"nothing holds", activity("Goa", "Drive", "", 10), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pred(tc.rec))
		})
	}
}

func TestBuildPredicate_NotConjoinsNegation(t *testing.T) {
	// state = Kerala AND NOT (category = Camp)
	conds := []Condition{
		{Field: "state", Operator: "=", Value: "Kerala", Logical: "NOT"},
		{Field: "eventCategory", Operator: "=", Value: "Camp"},
	}
	pred, err := BuildPredicate(conds)
	require.NoError(t, err)

	require.True(t, pred(activity("Kerala", "Drive", "", 10)))
	require.False(t, pred(activity("Kerala", "Camp", "", 10)))
	require.False(t, pred(activity("Goa", "Drive", "", 10)))
}

func TestBuildPredicate_UnknownLogicalDefaultsToAnd(t *testing.T) {
	conds := []Condition{
		{Field: "state", Operator: "=", Value: "Kerala", Logical: "XOR"},
		{Field: "eventCategory", Operator: "=", Value: "Camp"},
	}
	pred, err := BuildPredicate(conds)
	require.NoError(t, err)
	require.True(t, pred(activity("Kerala", "Camp", "", 1)))
	require.False(t, pred(activity("Kerala", "Drive", "", 1)))
}

func TestBuildPredicate_Validation(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
	}{
		{"unknown field", Condition{Field: "nope", Operator: "=", Value: "x"}},
		{"relational operator on string field", Condition{Field: "state", Operator: "<", Value: "x"}},
		{"unknown operator", Condition{Field: "state", Operator: "LIKE", Value: "x"}},
		{"bad numeric value", Condition{Field: "numberOfParticipants", Operator: ">", Value: "many"}},
		{"bad date value", Condition{Field: "eventDate", Operator: ">=", Value: "sometime"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildPredicate([]Condition{tc.cond})
			require.Error(t, err)
			require.True(t, httperr.IsValidation(err))
		})
	}
}

func TestBuildPredicate_ValidationAbortsWholeChain(t *testing.T) {
	_, err := BuildPredicate([]Condition{
		{Field: "state", Operator: "=", Value: "Kerala", Logical: "AND"},
		{Field: "numberOfParticipants", Operator: ">", Value: "not-a-number"},
	})
	require.Error(t, err)
	require.True(t, httperr.IsValidation(err))
}

func TestCompileCondition_DateComparisons(t *testing.T) {
	pred, err := BuildPredicate([]Condition{
		{Field: "eventDate", Operator: ">=", Value: "2024-10-29"},
	})
	require.NoError(t, err)

	require.True(t, pred(activity("", "", "2024-10-30", 1)))
	require.True(t, pred(activity("", "", "2024-10-29", 1)))
	require.False(t, pred(activity("", "", "2024-10-28", 1)))
	// Records without a date never match a date condition.
	require.False(t, pred(activity("", "", "", 1)))
}

func TestCompileCondition_MissingDateNeverMatchesInequality(t *testing.T) {
	pred, err := BuildPredicate([]Condition{
		{Field: "eventDate", Operator: "!=", Value: "2024-10-29"},
	})
	require.NoError(t, err)
	require.False(t, pred(activity("", "", "", 1)))
	require.True(t, pred(activity("", "", "2024-10-30", 1)))
}

func TestCombinators(t *testing.T) {
	yes := Predicate(func(*v1.Activity) bool { return true })
	no := Predicate(func(*v1.Activity) bool { return false })

	rec := activity("", "", "", 1)
	require.True(t, And(yes, yes)(rec))
	require.False(t, And(yes, no)(rec))
	require.True(t, Or(no, yes)(rec))
	require.False(t, Or(no, no)(rec))
	require.True(t, Not(no)(rec))
	require.False(t, Not(yes)(rec))
}
