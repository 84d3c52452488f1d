package migrations

import (
	"io"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Paired(t *testing.T) {
	ups, err := fs.Glob(MigrationFiles, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(MigrationFiles, "*.down.sql")
	require.NoError(t, err)

	require.Len(t, ups, 2)
	require.Len(t, downs, len(ups))
}

func TestSource_ListsVersionsInOrder(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	require.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	require.Equal(t, uint(2), next)
}

func TestSource_ServesMigrateDriver(t *testing.T) {
	var src source.Driver
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	r, identifier, err := src.ReadUp(1)
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, "create_files_table", identifier)

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS files")

	down, _, err := src.ReadDown(2)
	require.NoError(t, err)
	require.NoError(t, down.Close())
}

func TestMigrationFiles_CreateExpectedTables(t *testing.T) {
	files, err := fs.ReadFile(MigrationFiles, "001_create_files_table.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(files), "CREATE TABLE IF NOT EXISTS files")
	require.Contains(t, string(files), "ingest_seq")

	summaries, err := fs.ReadFile(MigrationFiles, "002_create_aggregated_data_table.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(summaries), "CREATE TABLE IF NOT EXISTS aggregated_data")
}
