package postgres

import (
	"fmt"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/goccy/go-json"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanFileRow scans a database row into a File.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanFileRow(row scanner) (*v1.File, error) {
	var f v1.File
	var data []byte

	if err := row.Scan(&f.Name, &data, &f.RecordCount, &f.AddedAt); err != nil {
		return nil, fmt.Errorf("failed to scan file row: %w", err)
	}
	f.Data = json.RawMessage(data)
	return &f, nil
}

// marshalSummary encodes a summary payload for the JSONB column.
func marshalSummary(rec *aggregation.PeriodSummary) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary %q: %w", rec.Period, err)
	}
	return payload, nil
}

// unmarshalSummary decodes a stored payload. The column version wins over the payload
// field so that rows written by older releases report their true version.
func unmarshalSummary(version int, payload []byte) (*aggregation.PeriodSummary, error) {
	var rec aggregation.PeriodSummary
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	rec.SchemaVersion = version
	return &rec, nil
}
