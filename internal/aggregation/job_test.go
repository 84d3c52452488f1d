package aggregation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage/memory"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func songRecord(ts, track, artist, uri string, ms int) string {
	return fmt.Sprintf(`{"ts":%q,"ms_played":%d,"spotify_track_uri":%q,`+
		`"master_metadata_track_name":%q,"master_metadata_album_artist_name":%q}`,
		ts, ms, uri, track, artist)
}

func podcastRecord(ts, show, uri string, ms int) string {
	return fmt.Sprintf(`{"ts":%q,"ms_played":%d,"spotify_episode_uri":%q,"episode_show_name":%q}`,
		ts, ms, uri, show)
}

func addFile(t *testing.T, store *memory.Store, name string, records ...string) {
	t.Helper()
	data := "[" + strings.Join(records, ",") + "]"
	require.NoError(t, store.AddFile(context.Background(), &v1.File{
		Name:        name,
		Data:        json.RawMessage(data),
		RecordCount: len(records),
	}))
}

// failingSummaries fails every write.
type failingSummaries struct {
	*memory.Store
}

func (f failingSummaries) PutSummaries(context.Context, map[string]*aggregation.PeriodSummary) error {
	return errors.New("disk full")
}

// countingSummaries counts writes and slows them down to widen overlap windows.
type countingSummaries struct {
	*memory.Store
	writes int32
}

func (c *countingSummaries) PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error {
	atomic.AddInt32(&c.writes, 1)
	time.Sleep(20 * time.Millisecond)
	return c.Store.PutSummaries(ctx, records)
}

func TestJob_EmptyInput(t *testing.T) {
	store := memory.New()
	job := NewJob(store, store, JobOptions{})

	_, err := job.Run(context.Background())
	require.ErrorIs(t, err, aggregation.ErrEmptyInput)

	keys, err := store.ListSummaryKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestJob_RunStoresLifetimeAndYears(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	addFile(t, store, "a.json",
		songRecord("2020-05-01T10:00:00Z", "Song A", "Artist X", "spotify:track:a", 3600000),
		podcastRecord("2020-06-01T10:00:00Z", "Show P", "spotify:episode:p", 1800000),
	)
	addFile(t, store, "b.json",
		songRecord("2021-01-15T10:00:00Z", "Song A", "Artist X", "spotify:track:a", 3600000),
		songRecord("not a date", "Song B", "Artist Y", "spotify:track:b", 1000),
	)

	job := NewJob(store, store, JobOptions{WorkerCount: 2})
	res, err := job.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"2020", "2021"}, res.Years)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.Events)
	assert.Equal(t, 2, res.Files)

	keys, err := store.ListSummaryKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lifetime", "2020", "2021"}, keys)

	lifetime, err := store.GetSummary(ctx, "lifetime")
	require.NoError(t, err)
	assert.Equal(t, int64(7200000), lifetime.TotalSongMsPlayed)
	assert.Equal(t, 2.0, lifetime.TotalSongHoursPlayed)
	assert.Equal(t, 0.5, lifetime.TotalPodcastHoursPlayed)
	assert.Equal(t, 1, lifetime.DistinctSongs)
	assert.Equal(t, 1, lifetime.DistinctPodcasts)
	require.Len(t, lifetime.RankedSongs, 1)
	assert.Equal(t, int64(2), lifetime.RankedSongs[0].Count.Count)

	y2020, err := store.GetSummary(ctx, "2020")
	require.NoError(t, err)
	require.Contains(t, y2020.Months, 5)
	require.Contains(t, y2020.Months, 6)
	assert.Equal(t, "2020-05", y2020.Months[5].Period)
}

func TestJob_StaleTracksFileCount(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	job := NewJob(store, store, JobOptions{})

	stale, err := job.Stale(ctx)
	require.NoError(t, err)
	assert.False(t, stale, "no files means nothing to refresh")

	addFile(t, store, "a.json", songRecord("2021-01-01T00:00:00Z", "S", "A", "u", 1))
	stale, err = job.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)

	_, err = job.Run(ctx)
	require.NoError(t, err)
	stale, err = job.Stale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)

	addFile(t, store, "b.json", songRecord("2021-02-01T00:00:00Z", "S", "A", "u", 1))
	stale, err = job.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestJob_FailedWriteLeavesJobStale(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	addFile(t, store, "a.json", songRecord("2021-01-01T00:00:00Z", "S", "A", "u", 1))

	job := NewJob(store, failingSummaries{store}, JobOptions{})
	_, err := job.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store summaries")

	stale, err := job.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)

	keys, err := store.ListSummaryKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestJob_CorruptFileAbortsRun(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.AddFile(ctx, &v1.File{Name: "bad.json", Data: json.RawMessage(`{"not":"an array"}`)}))

	job := NewJob(store, store, JobOptions{})
	_, err := job.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode files")
}

func TestJob_ConcurrentRunsDoNotOverlap(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	addFile(t, store, "a.json", songRecord("2021-01-01T00:00:00Z", "S", "A", "u", 1000))

	summaries := &countingSummaries{Store: store}
	job := NewJob(store, summaries, JobOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := job.Run(ctx)
			assert.NoError(t, err)
			assert.Equal(t, []string{"2021"}, res.Years)
		}()
	}
	wg.Wait()

	// Callers either share an in-flight run or queue behind it; never more writes than callers.
	writes := atomic.LoadInt32(&summaries.writes)
	assert.GreaterOrEqual(t, writes, int32(1))
	assert.LessOrEqual(t, writes, int32(8))

	lifetime, err := store.GetSummary(ctx, "lifetime")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), lifetime.TotalSongMsPlayed)
}

func TestJob_RerunIsIdempotent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	addFile(t, store, "a.json",
		songRecord("2021-01-01T00:00:00Z", "S1", "A", "u1", 10),
		songRecord("2021-03-01T00:00:00Z", "S2", "B", "u2", 20),
	)

	job := NewJob(store, store, JobOptions{})
	_, err := job.Run(ctx)
	require.NoError(t, err)
	first, err := store.GetSummary(ctx, "lifetime")
	require.NoError(t, err)

	_, err = job.Run(ctx)
	require.NoError(t, err)
	second, err := store.GetSummary(ctx, "lifetime")
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
}

// gatedSummaries holds writes until released and fails them on a cancelled context.
type gatedSummaries struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSummaries) PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.Store.PutSummaries(ctx, records)
}

func TestJob_RunSurvivesInitiatorCancellation(t *testing.T) {
	store := memory.New()
	addFile(t, store, "a.json", songRecord("2021-01-01T00:00:00Z", "S", "A", "u", 1000))

	summaries := &gatedSummaries{
		Store:   store,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	job := NewJob(store, summaries, JobOptions{})

	reqCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := job.Run(reqCtx)
		firstErr <- err
	}()
	<-summaries.entered

	joined := make(chan error, 1)
	go func() {
		res, err := job.Run(context.Background())
		if err == nil {
			assert.Equal(t, []string{"2021"}, res.Years)
		}
		joined <- err
	}()

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(summaries.release)

	require.NoError(t, <-firstErr)
	require.NoError(t, <-joined)

	lifetime, err := store.GetSummary(context.Background(), "lifetime")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), lifetime.TotalSongMsPlayed)
}
