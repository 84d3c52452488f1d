package postgres

import "github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"

// Store serves both tables from one connection pool.
type Store struct {
	*Adapter
	*SummaryAdapter
}

var _ storage.Store = (*Store)(nil)

// NewStore combines a prepared Adapter with a SummaryAdapter on the same connection.
func NewStore(a *Adapter) *Store {
	return &Store{Adapter: a, SummaryAdapter: NewSummaryAdapter(a.DB())}
}
