package v1

import (
	"fmt"
	"time"

	httperr "github.com/powergrid-labs/gridtrack/internal/core/errors"
)

// DateLayout is the wire format for every date in the API (event dates,
// acceptance window bounds, dashboard range parameters).
const DateLayout = "2006-01-02"

// Participant count bounds enforced at write time. Out-of-range values are
// rejected, never clamped.
const (
	MinParticipants = 1
	MaxParticipants = 1000
)

// Activity is the atomic unit of the system: one tracked field activity.
//
// The string fields form a closed set; there is no free-form payload. EventDate
// is carried as a plain YYYY-MM-DD string ("" means not set) so that records
// without a date survive round trips unchanged.
type Activity struct {
	// ID is assigned by the store (BIGSERIAL). Zero means "not yet persisted".
	ID int64 `json:"id"`

	State               string `json:"state"`
	StationName         string `json:"stationName"`
	ActivityType        string `json:"activityType"`
	EventCategory       string `json:"eventCategory"`
	ParticipantCategory string `json:"participantCategory"`
	EventDescription    string `json:"eventDescription"`

	SchoolOrCollegeOrPanchayatName string `json:"schoolOrCollegeOrPanchayatName"`
	EventLocation                  string `json:"eventLocation"`
	Remarks                        string `json:"remarks"`

	// EventDate in DateLayout format, or "" when the record has no date.
	EventDate string `json:"eventDate"`

	NumberOfParticipants int `json:"numberOfParticipants"`

	// OrderIndex drives manual ordering in listings. Maintained by the
	// reorder operation, not derived from any other field.
	OrderIndex int `json:"orderIndex"`
}

// FileMetadata describes one attachment of an activity. The stored path is an
// opaque handle into the blob store and never leaves the server.
type FileMetadata struct {
	ID          int64  `json:"id"`
	ActivityID  int64  `json:"activityId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
	StoredPath  string `json:"-"`
}

// DateWindow is the inclusive acceptance window for event dates.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window (inclusive on both ends).
func (w DateWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Validate enforces the write-time rules: participant count within bounds and,
// when a date is present, the date parseable and inside the acceptance window.
func (a *Activity) Validate(window DateWindow) error {
	if a.NumberOfParticipants < MinParticipants || a.NumberOfParticipants > MaxParticipants {
		return httperr.NewValidation(
			"numberOfParticipants",
			fmt.Sprintf("%d", a.NumberOfParticipants),
			fmt.Sprintf("must be between %d and %d", MinParticipants, MaxParticipants),
		)
	}

	if a.EventDate != "" {
		t, err := time.Parse(DateLayout, a.EventDate)
		if err != nil {
			return httperr.NewValidation("eventDate", a.EventDate, "must be a valid date in YYYY-MM-DD format")
		}
		if !window.Contains(t) {
			return httperr.NewValidation(
				"eventDate",
				a.EventDate,
				fmt.Sprintf("must be between %s and %s",
					window.Start.Format(DateLayout), window.End.Format(DateLayout)),
			)
		}
	}

	return nil
}
