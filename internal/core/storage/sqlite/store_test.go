package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AddFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := &v1.File{Name: "a.json", Data: json.RawMessage(`[{"ms_played":5}]`), RecordCount: 1}
	require.NoError(t, s.AddFile(ctx, f))
	assert.False(t, f.AddedAt.IsZero())

	err := s.AddFile(ctx, &v1.File{Name: "a.json", Data: json.RawMessage(`[]`)})
	require.ErrorIs(t, err, storage.ErrDuplicate)

	n, err := s.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_GetAllFilesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"c.json", "a.json", "b.json"} {
		require.NoError(t, s.AddFile(ctx, &v1.File{Name: name, Data: json.RawMessage(`[]`)}))
	}

	files, err := s.GetAllFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "c.json", files[0].Name)
	assert.Equal(t, "a.json", files[1].Name)
	assert.Equal(t, "b.json", files[2].Name)
}

func TestStore_Summaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSummary(ctx, "2021")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.PutSummaries(ctx, map[string]*aggregation.PeriodSummary{
		"lifetime": {Period: "lifetime", SchemaVersion: aggregation.SchemaVersion, TotalSongMsPlayed: 10},
		"2021":     {Period: "2021", SchemaVersion: aggregation.SchemaVersion, TotalSongMsPlayed: 10},
	}))
	require.NoError(t, s.PutSummaries(ctx, map[string]*aggregation.PeriodSummary{
		"2021": {Period: "2021", SchemaVersion: aggregation.SchemaVersion, TotalSongMsPlayed: 20},
		"2020": {Period: "2020", SchemaVersion: aggregation.SchemaVersion},
	}))

	got, err := s.GetSummary(ctx, "2021")
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.TotalSongMsPlayed)
	assert.Equal(t, aggregation.SchemaVersion, got.SchemaVersion)

	keys, err := s.ListSummaryKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lifetime", "2020", "2021"}, keys)
}

func TestStore_FileOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.AddFile(ctx, &v1.File{Name: "a.json", Data: json.RawMessage(`[]`)}))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
