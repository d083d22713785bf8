package postgres

import (
	"database/sql"
	"fmt"
	"time"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanActivityRow scans a row in activityColumns order into an Activity.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
// A NULL event_date maps to the empty string.
func scanActivityRow(row scanner) (*v1.Activity, error) {
	var a v1.Activity
	var eventDate sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.State,
		&a.StationName,
		&a.ActivityType,
		&a.EventCategory,
		&a.ParticipantCategory,
		&a.EventDescription,
		&a.SchoolOrCollegeOrPanchayatName,
		&a.EventLocation,
		&a.Remarks,
		&eventDate,
		&a.NumberOfParticipants,
		&a.OrderIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan activity row: %w", err)
	}

	if eventDate.Valid {
		a.EventDate = eventDate.Time.Format(v1.DateLayout)
	}

	return &a, nil
}

// scanFileRow scans an activity_files row.
func scanFileRow(row scanner) (*v1.FileMetadata, error) {
	var f v1.FileMetadata
	err := row.Scan(
		&f.ID,
		&f.ActivityID,
		&f.FileName,
		&f.ContentType,
		&f.FileSize,
		&f.StoredPath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}
	return &f, nil
}

// dateArg converts a wire-format date to a DATE bind value.
// "" maps to SQL NULL.
func dateArg(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(v1.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid event date %q: %w", s, err)
	}
	return t, nil
}

// activityArgs returns the bind values for insert/update in column order
// (without the id).
func activityArgs(a *v1.Activity) ([]interface{}, error) {
	date, err := dateArg(a.EventDate)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		a.State,
		a.StationName,
		a.ActivityType,
		a.EventCategory,
		a.ParticipantCategory,
		a.EventDescription,
		a.SchoolOrCollegeOrPanchayatName,
		a.EventLocation,
		a.Remarks,
		date,
		a.NumberOfParticipants,
		a.OrderIndex,
	}, nil
}
