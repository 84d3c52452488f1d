package memory

import (
	"context"
	"sync"
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/goccy/go-json"
)

// Store is an in-memory implementation of storage.Store.
// Useful for testing and for throwaway sessions.
type Store struct {
	mu        sync.RWMutex
	files     map[string]*v1.File
	order     []string
	summaries map[string][]byte
	nowFn     func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		files:     make(map[string]*v1.File),
		summaries: make(map[string][]byte),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) AddFile(ctx context.Context, file *v1.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[file.Name]; exists {
		return storage.ErrDuplicate
	}

	// Store a copy to prevent external modification
	copy := *file
	copy.Data = append(json.RawMessage(nil), file.Data...)
	copy.AddedAt = s.nowFn()
	s.files[file.Name] = &copy
	s.order = append(s.order, file.Name)
	file.AddedAt = copy.AddedAt
	return nil
}

func (s *Store) GetAllFiles(ctx context.Context) ([]*v1.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*v1.File, 0, len(s.order))
	for _, name := range s.order {
		copy := *s.files[name]
		result = append(result, &copy)
	}
	return result, nil
}

func (s *Store) CountFiles(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files), nil
}

// PutSummaries encodes every record before touching the map, so a failing record
// leaves the store unchanged.
func (s *Store) PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error {
	encoded := make(map[string][]byte, len(records))
	for key, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		encoded[aggregation.NormalizeKey(key)] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, data := range encoded {
		s.summaries[key] = data
	}
	return nil
}

func (s *Store) GetSummary(ctx context.Context, key string) (*aggregation.PeriodSummary, error) {
	s.mu.RLock()
	data, exists := s.summaries[aggregation.NormalizeKey(key)]
	s.mu.RUnlock()
	if !exists {
		return nil, storage.ErrNotFound
	}

	var rec aggregation.PeriodSummary
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListSummaryKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.summaries))
	for k := range s.summaries {
		keys = append(keys, k)
	}
	return storage.SortKeys(keys), nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }
