package postgres

// SQL queries for activity and attachment storage operations

const (
	// activityColumns is the canonical column order shared by every
	// activity SELECT so all rows scan with scanActivityRow.
	activityColumns = `
		id, state, station_name, activity_type, event_category,
		participant_category, event_description, school_name,
		event_location, remarks, event_date, number_of_participants,
		order_index`

	// queryInsertActivity inserts a record and returns the BIGSERIAL id.
	queryInsertActivity = `
		INSERT INTO activities (
			state, station_name, activity_type, event_category,
			participant_category, event_description, school_name,
			event_location, remarks, event_date, number_of_participants,
			order_index
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	// queryUpdateActivity updates a record in full. Zero rows affected
	// means the id does not exist (storage.ErrNotFound upstream).
	queryUpdateActivity = `
		UPDATE activities SET
			state = $1, station_name = $2, activity_type = $3,
			event_category = $4, participant_category = $5,
			event_description = $6, school_name = $7, event_location = $8,
			remarks = $9, event_date = $10, number_of_participants = $11,
			order_index = $12
		WHERE id = $13
	`

	queryGetActivity = `
		SELECT` + activityColumns + `
		FROM activities
		WHERE id = $1
	`

	// queryScanActivities feeds the in-process query engine. Scan order is
	// id ASC so unsorted results are deterministic.
	queryScanActivities = `
		SELECT` + activityColumns + `
		FROM activities
		ORDER BY id ASC
	`

	queryDeleteActivity = `
		DELETE FROM activities
		WHERE id = $1
	`

	queryDeleteActivities = `
		DELETE FROM activities
		WHERE id = ANY($1)
	`

	queryInsertFile = `
		INSERT INTO activity_files (
			activity_id, file_name, content_type, file_size, stored_path
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	queryFilesByActivity = `
		SELECT id, activity_id, file_name, content_type, file_size, stored_path
		FROM activity_files
		WHERE activity_id = $1
		ORDER BY id ASC
	`

	queryFileByID = `
		SELECT id, activity_id, file_name, content_type, file_size, stored_path
		FROM activity_files
		WHERE id = $1
	`

	queryDeleteFile = `
		DELETE FROM activity_files
		WHERE id = $1
	`
)
