package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	aggjob "github.com/Tab-and-Quill/spotify-music-history/internal/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/metrics"
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid summary query")

// Service implements the query facade over the summary store.
type Service struct {
	summaries storage.SummaryStore
	job       *aggjob.Job
}

// NewService creates a new projection service. job may be nil, in which case
// POST /v1/aggregations is not registered.
func NewService(summaries storage.SummaryStore, job *aggjob.Job) *Service {
	return &Service{summaries: summaries, job: job}
}

// Resolve returns the summary for a period key: "lifetime", a year ("2023") or a
// month-qualified key ("2023-05"). Keys are case-insensitive. A missing record, a
// record written by another schema version or a month without plays all yield
// storage.ErrNotFound, which callers answer by re-aggregating.
func (s *Service) Resolve(ctx context.Context, period string) (*aggregation.PeriodSummary, error) {
	ref, err := aggregation.ParsePeriod(period)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	rec, err := s.summaries.GetSummary(ctx, ref.StoreKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.RecordSummaryLookup("miss")
			return nil, err
		}
		metrics.RecordSummaryLookup("error")
		return nil, fmt.Errorf("get summary %q: %w", ref.StoreKey(), err)
	}

	if !storage.Current(rec) {
		slog.Info("Stored summary has outdated schema version",
			"period", ref.StoreKey(),
			"stored_version", rec.SchemaVersion,
			"current_version", aggregation.SchemaVersion)
		metrics.RecordSummaryLookup("stale")
		return nil, storage.ErrNotFound
	}

	sel, ok := rec.Select(ref)
	if !ok {
		metrics.RecordSummaryLookup("miss")
		return nil, storage.ErrNotFound
	}

	metrics.RecordSummaryLookup("hit")
	return sel, nil
}

// Keys lists every stored period key, lifetime first.
func (s *Service) Keys(ctx context.Context) ([]string, error) {
	return s.summaries.ListSummaryKeys(ctx)
}

// Aggregate runs the aggregation job on demand.
func (s *Service) Aggregate(ctx context.Context) (*aggjob.RunResult, error) {
	if s.job == nil {
		return nil, errors.New("aggregation is not configured")
	}
	return s.job.Run(ctx)
}
