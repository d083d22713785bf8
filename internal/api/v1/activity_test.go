package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
)

func testWindow(t *testing.T) DateWindow {
	t.Helper()
	start, err := time.Parse(DateLayout, "2024-10-28")
	require.NoError(t, err)
	end, err := time.Parse(DateLayout, "2024-11-03")
	require.NoError(t, err)
	return DateWindow{Start: start, End: end}
}

func TestActivity_Validate(t *testing.T) {
	window := testWindow(t)

	valid := func() Activity {
		return Activity{
			State:                "Karnataka",
			EventCategory:        "Awareness",
			EventDate:            "2024-10-30",
			NumberOfParticipants: 50,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Activity)
		wantError bool
		wantField string
	}{
		{
			name:   "valid record passes",
			mutate: func(*Activity) {},
		},
		{
			name:      "zero participants rejected",
			mutate:    func(a *Activity) { a.NumberOfParticipants = 0 },
			wantError: true,
			wantField: "numberOfParticipants",
		},
		{
			name:      "participants above upper bound rejected",
			mutate:    func(a *Activity) { a.NumberOfParticipants = 1001 },
			wantError: true,
			wantField: "numberOfParticipants",
		},
		{
			name:   "participants at lower bound accepted",
			mutate: func(a *Activity) { a.NumberOfParticipants = 1 },
		},
		{
			name:   "participants at upper bound accepted",
			mutate: func(a *Activity) { a.NumberOfParticipants = 1000 },
		},
		{
			name:   "missing date accepted",
			mutate: func(a *Activity) { a.EventDate = "" },
		},
		{
			name:      "unparsable date rejected",
			mutate:    func(a *Activity) { a.EventDate = "30-10-2024" },
			wantError: true,
			wantField: "eventDate",
		},
		{
			name:      "date before window rejected",
			mutate:    func(a *Activity) { a.EventDate = "2024-10-27" },
			wantError: true,
			wantField: "eventDate",
		},
		{
			name:      "date after window rejected",
			mutate:    func(a *Activity) { a.EventDate = "2024-11-04" },
			wantError: true,
			wantField: "eventDate",
		},
		{
			name:   "window bounds are inclusive",
			mutate: func(a *Activity) { a.EventDate = "2024-11-03" },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := valid()
			tc.mutate(&a)

			err := a.Validate(window)
			if !tc.wantError {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, httperr.IsValidation(err))
			require.Contains(t, err.Error(), tc.wantField)
		})
	}
}

func TestDateWindow_Contains(t *testing.T) {
	window := testWindow(t)

	inside, _ := time.Parse(DateLayout, "2024-10-30")
	require.True(t, window.Contains(inside))
	require.True(t, window.Contains(window.Start))
	require.True(t, window.Contains(window.End))
	require.False(t, window.Contains(window.Start.AddDate(0, 0, -1)))
	require.False(t, window.Contains(window.End.AddDate(0, 0, 1)))
}
