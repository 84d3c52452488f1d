package storage

import (
	"context"
	"fmt"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
)

// unavailableStore stands in for a backend that failed to open.
type unavailableStore struct {
	err error
}

// NewUnavailable returns a Store whose every operation fails with ErrUnavailable
// wrapping cause.
func NewUnavailable(cause error) Store {
	return &unavailableStore{err: fmt.Errorf("%w: %v", ErrUnavailable, cause)}
}

func (s *unavailableStore) AddFile(context.Context, *v1.File) error { return s.err }

func (s *unavailableStore) GetAllFiles(context.Context) ([]*v1.File, error) { return nil, s.err }

func (s *unavailableStore) CountFiles(context.Context) (int, error) { return 0, s.err }

func (s *unavailableStore) PutSummaries(context.Context, map[string]*aggregation.PeriodSummary) error {
	return s.err
}

func (s *unavailableStore) GetSummary(context.Context, string) (*aggregation.PeriodSummary, error) {
	return nil, s.err
}

func (s *unavailableStore) ListSummaryKeys(context.Context) ([]string, error) { return nil, s.err }

func (s *unavailableStore) Ping(context.Context) error { return s.err }

func (s *unavailableStore) Close() error { return nil }
