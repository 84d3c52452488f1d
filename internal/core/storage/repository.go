package storage

import (
	"context"
	"errors"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
)

var (
	// ErrDuplicate is returned when a file with the same name already exists.
	ErrDuplicate = errors.New("file already exists")

	// ErrNotFound is returned when no summary is stored under a key.
	ErrNotFound = errors.New("summary not found")

	// ErrUnavailable is returned by every operation of a store whose backend failed to open.
	ErrUnavailable = errors.New("storage unavailable")
)

// FileStore is the durable store of uploaded history files, keyed by file name.
// Writes are totally ordered per store: of two concurrent Adds for one name, exactly one
// succeeds and the other returns ErrDuplicate.
type FileStore interface {
	// AddFile persists a file. Returns ErrDuplicate if the name is already taken.
	AddFile(ctx context.Context, file *v1.File) error

	// GetAllFiles returns every stored file ordered by insertion.
	GetAllFiles(ctx context.Context) ([]*v1.File, error)

	// CountFiles returns the number of stored files.
	CountFiles(ctx context.Context) (int, error)
}

// SummaryStore is the durable store of exported period summaries, keyed by the
// lower-cased period ("lifetime" or a year).
type SummaryStore interface {
	// PutSummaries upserts all records in one write. Either every record is stored or none.
	PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error

	// GetSummary returns the record stored under key, or ErrNotFound.
	GetSummary(ctx context.Context, key string) (*aggregation.PeriodSummary, error)

	// ListSummaryKeys returns every stored key: "lifetime" first, then years ascending.
	ListSummaryKeys(ctx context.Context) ([]string, error)
}

// Store is a backend that serves both tables.
type Store interface {
	FileStore
	SummaryStore
	Ping(ctx context.Context) error
	Close() error
}
