package aggregation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
)

// Scheduler re-runs the aggregation job on a periodic interval whenever the stored
// file count changed since the last successful run.
type Scheduler struct {
	interval time.Duration
	job      *Job
}

// NewScheduler creates a scheduler for job.
func NewScheduler(interval time.Duration, job *Job) *Scheduler {
	return &Scheduler{interval: interval, job: job}
}

// Start begins periodic aggregation.
// Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting aggregation scheduler", "interval", s.interval)

	// Catch up with files uploaded while the process was down.
	s.tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// tick runs the job once if new files arrived. It reports whether a run happened.
func (s *Scheduler) tick(ctx context.Context) bool {
	stale, err := s.job.Stale(ctx)
	if err != nil {
		slog.Error("[Scheduler] Staleness check failed", "error", err)
		return false
	}
	if !stale {
		return false
	}

	res, err := s.job.Run(ctx)
	if err != nil {
		if errors.Is(err, aggregation.ErrEmptyInput) {
			slog.Debug("[Scheduler] No files to aggregate")
			return false
		}
		slog.Error("[Scheduler] Aggregation failed", "error", err)
		return false
	}

	slog.Info("[Scheduler] Summaries refreshed",
		"files", res.Files,
		"years", len(res.Years),
		"skipped", res.Skipped,
	)
	return true
}
