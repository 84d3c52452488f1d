package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
)

// SummaryAdapter implements storage.SummaryStore using PostgreSQL.
// All records of one aggregation run are upserted in a single transaction, so readers
// never observe a half-written run.
type SummaryAdapter struct {
	db    *sql.DB
	nowFn func() time.Time
}

// NewSummaryAdapter creates a new SummaryAdapter sharing the given connection.
func NewSummaryAdapter(db *sql.DB) *SummaryAdapter {
	return &SummaryAdapter{db: db, nowFn: utcNow}
}

// PutSummaries upserts every record in one transaction.
func (a *SummaryAdapter) PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put summaries: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	upsertStmt, err := tx.PrepareContext(ctx, queryUpsertSummary)
	if err != nil {
		return fmt.Errorf("put summaries: prepare upsert: %w", err)
	}
	defer upsertStmt.Close()

	now := a.nowFn()
	for _, key := range storage.SortKeys(keysOf(records)) {
		rec := records[key]
		payload, err := marshalSummary(rec)
		if err != nil {
			return fmt.Errorf("put summaries: %w", err)
		}
		if _, err := upsertStmt.ExecContext(ctx,
			aggregation.NormalizeKey(key),
			rec.SchemaVersion,
			payload,
			now,
		); err != nil {
			return fmt.Errorf("put summaries: upsert %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put summaries: commit: %w", err)
	}

	slog.Info("[SummaryAdapter] Stored summaries", "count", len(records))
	return nil
}

// GetSummary returns the summary stored under key, or storage.ErrNotFound.
func (a *SummaryAdapter) GetSummary(ctx context.Context, key string) (*aggregation.PeriodSummary, error) {
	var (
		version int
		payload []byte
	)
	err := a.db.QueryRowContext(ctx, queryGetSummary, aggregation.NormalizeKey(key)).Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get summary %q: %w", key, err)
	}
	return unmarshalSummary(version, payload)
}

// ListSummaryKeys returns every stored period key, lifetime first.
func (a *SummaryAdapter) ListSummaryKeys(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, queryListSummaryKeys)
	if err != nil {
		return nil, fmt.Errorf("list summary keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("list summary keys: scan row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list summary keys: iterate rows: %w", err)
	}
	return storage.SortKeys(keys), nil
}

func keysOf(records map[string]*aggregation.PeriodSummary) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	return keys
}
