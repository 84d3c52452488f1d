package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const defaultWorkerCount = 4

// JobOptions controls a full re-aggregation run.
type JobOptions struct {
	// RankLimit caps every ranking list. Non-positive means aggregation.DefaultRankLimit.
	RankLimit int

	// WorkerCount bounds how many stored files are decoded concurrently.
	WorkerCount int
}

func (o JobOptions) normalized() JobOptions {
	n := o
	if n.RankLimit <= 0 {
		n.RankLimit = aggregation.DefaultRankLimit
	}
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	return n
}

// RunResult is reported to callers after a successful run.
type RunResult struct {
	Years   []string `json:"years"`
	Skipped int      `json:"skipped"`
	Events  int      `json:"events"`
	Files   int      `json:"files"`
}

// Job rebuilds every summary from all stored files.
// Runs never overlap: concurrent callers share the in-flight run.
type Job struct {
	files     storage.FileStore
	summaries storage.SummaryStore
	opts      JobOptions

	group singleflight.Group
	mu    sync.Mutex

	// lastFiles is the file count folded by the last successful run, -1 before any.
	lastFiles int
}

// NewJob creates an aggregation job over the given stores.
func NewJob(files storage.FileStore, summaries storage.SummaryStore, opts JobOptions) *Job {
	return &Job{
		files:     files,
		summaries: summaries,
		opts:      opts.normalized(),
		lastFiles: -1,
	}
}

// Run loads every file, aggregates all events and upserts the flattened records in one
// write. It returns aggregation.ErrEmptyInput when no file is stored. Joined callers
// share one run, so the run ignores cancellation of whichever caller started it.
func (j *Job) Run(ctx context.Context) (*RunResult, error) {
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := j.group.Do("aggregate", func() (interface{}, error) {
		return j.run(runCtx)
	})
	if shared {
		slog.Debug("[BatchJob] Joined in-flight aggregation run")
	}
	if err != nil {
		return nil, err
	}
	return v.(*RunResult), nil
}

// Stale reports whether the file count changed since the last successful run.
func (j *Job) Stale(ctx context.Context) (bool, error) {
	n, err := j.files.CountFiles(ctx)
	if err != nil {
		return false, fmt.Errorf("count files: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return n > 0 && n != j.lastFiles, nil
}

func (j *Job) run(ctx context.Context) (*RunResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()

	files, err := j.files.GetAllFiles(ctx)
	if err != nil {
		metrics.RecordAggregation("error", time.Since(start), 0, 0)
		return nil, fmt.Errorf("load files: %w", err)
	}
	if len(files) == 0 {
		metrics.RecordAggregation("empty", time.Since(start), 0, 0)
		return nil, aggregation.ErrEmptyInput
	}

	slog.Info("[BatchJob] Starting aggregation",
		"files", len(files),
		"workers", j.opts.WorkerCount,
		"rank_limit", j.opts.RankLimit,
	)

	events, err := decodeConcurrently(files, j.opts.WorkerCount)
	if err != nil {
		metrics.RecordAggregation("error", time.Since(start), 0, 0)
		return nil, err
	}

	res := aggregation.Aggregate(events, j.opts.RankLimit)
	if res.Skipped > 0 {
		slog.Warn("[BatchJob] Skipped records with unparseable timestamps", "skipped", res.Skipped)
	}

	records := aggregation.Flatten(res.Lifetime)
	if err := j.summaries.PutSummaries(ctx, records); err != nil {
		metrics.RecordAggregation("error", time.Since(start), 0, 0)
		return nil, fmt.Errorf("store summaries: %w", err)
	}

	j.lastFiles = len(files)
	elapsed := time.Since(start)
	metrics.RecordAggregation("success", elapsed, res.Events, res.Skipped)

	result := &RunResult{
		Years:   aggregation.SortedYearKeys(res.Lifetime),
		Skipped: res.Skipped,
		Events:  res.Events,
		Files:   len(files),
	}

	slog.Info("[BatchJob] Aggregation complete",
		"events", res.Events,
		"skipped", res.Skipped,
		"records_written", len(records),
		"duration", elapsed,
	)
	return result, nil
}

// decodeConcurrently decodes files on a bounded worker pool. Events keep file order
// so the aggregate does not depend on scheduling.
func decodeConcurrently(files []*v1.File, workerCount int) ([]v1.PlayEvent, error) {
	perFile := make([][]v1.PlayEvent, len(files))
	errs := make([]error, len(files))

	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(min(workerCount, len(files)))
	for w := 0; w < min(workerCount, len(files)); w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				records, err := files[i].Records()
				if err != nil {
					errs[i] = err
					continue
				}
				perFile[i] = aggregation.EventsFromRecords(records)
			}
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}

	total := 0
	for _, evs := range perFile {
		total += len(evs)
	}
	events := make([]v1.PlayEvent, 0, total)
	for _, evs := range perFile {
		events = append(events, evs...)
	}
	return events, nil
}
