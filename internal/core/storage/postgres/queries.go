package postgres

// SQL queries for file and summary storage.

const (
	// queryAddFile inserts an uploaded file.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for a name that already exists.
	// RETURNING yields the server-side timestamp so the caller sees what was stored.
	queryAddFile = `
		INSERT INTO files (name, data, record_count, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
		RETURNING added_at
	`

	// queryGetAllFiles scans every file in upload order.
	queryGetAllFiles = `
		SELECT name, data, record_count, added_at
		FROM files
		ORDER BY ingest_seq ASC
	`

	queryCountFiles = `SELECT COUNT(*) FROM files`

	// queryUpsertSummary overwrites the stored record of a period. Summaries are fully
	// recomputed on every run, so the newest write always wins.
	queryUpsertSummary = `
		INSERT INTO aggregated_data (period, schema_version, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (period)
		DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			payload        = EXCLUDED.payload,
			updated_at     = EXCLUDED.updated_at
	`

	queryGetSummary = `
		SELECT schema_version, payload
		FROM aggregated_data
		WHERE period = $1
	`

	queryListSummaryKeys = `SELECT period FROM aggregated_data`

	queryTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`
)
