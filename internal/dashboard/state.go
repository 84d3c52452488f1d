// Package dashboard holds the client-side view of listening statistics as an
// explicit state container. Every mutation returns a new immutable Snapshot and
// notifies subscribers.
package dashboard

import (
	"fmt"
	"sort"
	"sync"

	aggjob "github.com/Tab-and-Quill/spotify-music-history/internal/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/pipeline"
	"github.com/Tab-and-Quill/spotify-music-history/internal/projection"
)

// DefaultDisplayLimit is the initial number of rows shown per ranked list.
const DefaultDisplayLimit = 10

// List names one of the ranked lists.
type List string

const (
	ListSongs    List = "songs"
	ListArtists  List = "artists"
	ListPodcasts List = "podcasts"
)

// Limits caps how many rows of each ranked list are displayed.
type Limits struct {
	Songs    int
	Artists  int
	Podcasts int
}

// Snapshot is a read-only view of the dashboard. Callers must not modify the
// slices or the summary it references.
type Snapshot struct {
	Version  uint64
	Keys     []string
	Period   string
	HasFiles bool
	Summary  *aggregation.PeriodSummary
	Chart    projection.ChartResponse
	LastRun  *aggjob.RunResult
	Limits   Limits
	Messages []string

	// reaggregated is the period that already triggered one aggregation
	// without yielding data. A second miss for it ends the load flow.
	reaggregated string
}

// Songs returns the ranked songs cut to the display limit.
func (s Snapshot) Songs() []aggregation.RankedSong {
	if s.Summary == nil {
		return nil
	}
	return s.Summary.RankedSongs[:min(s.Limits.Songs, len(s.Summary.RankedSongs))]
}

// Artists returns the top artists cut to the display limit.
func (s Snapshot) Artists() []aggregation.RankedArtist {
	if s.Summary == nil {
		return nil
	}
	return s.Summary.TopArtists[:min(s.Limits.Artists, len(s.Summary.TopArtists))]
}

// Podcasts returns the top podcast shows cut to the display limit.
func (s Snapshot) Podcasts() []aggregation.RankedPodcast {
	if s.Summary == nil {
		return nil
	}
	return s.Summary.TopPodcasts[:min(s.Limits.Podcasts, len(s.Summary.TopPodcasts))]
}

// Store is the state container.
type Store struct {
	mu     sync.Mutex
	snap   Snapshot
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates a store with default display limits and "lifetime" selected.
func New() *Store {
	return &Store{
		snap: Snapshot{
			Period: aggregation.PeriodLifetime,
			Limits: Limits{DefaultDisplayLimit, DefaultDisplayLimit, DefaultDisplayLimit},
		},
		subs: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (st *Store) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snap
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription and is safe to call more than once.
func (st *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	st.mu.Unlock()

	return func() {
		st.mu.Lock()
		delete(st.subs, id)
		st.mu.Unlock()
	}
}

// SetLimit changes the display limit of one list.
func (st *Store) SetLimit(list List, n int) (Snapshot, error) {
	if n < 1 || n > aggregation.DefaultRankLimit {
		return st.Snapshot(), fmt.Errorf("display limit %d out of range 1..%d", n, aggregation.DefaultRankLimit)
	}
	switch list {
	case ListSongs, ListArtists, ListPodcasts:
	default:
		return st.Snapshot(), fmt.Errorf("unknown list %q", list)
	}
	return st.update(func(s *Snapshot) {
		switch list {
		case ListSongs:
			s.Limits.Songs = n
		case ListArtists:
			s.Limits.Artists = n
		case ListPodcasts:
			s.Limits.Podcasts = n
		}
	}), nil
}

// SelectPeriod changes the selected period and returns the request that loads it.
func (st *Store) SelectPeriod(period string) (Snapshot, pipeline.Request) {
	key := aggregation.NormalizeKey(period)
	snap := st.update(func(s *Snapshot) {
		s.Period = key
		s.reaggregated = ""
	})
	return snap, pipeline.Request{Type: pipeline.TypeFetchAggregatedData, Filter: key}
}

// Apply folds a pipeline response into the state. It also returns the request
// that continues the load flow, or nil when the flow is complete:
// noAggregatedData triggers aggregation, a completed aggregation refreshes the
// keys, and fetched keys load the selected period. A period that is still
// missing after one aggregation (a month without plays, say) ends the flow.
func (st *Store) Apply(resp pipeline.Response) (Snapshot, *pipeline.Request) {
	var next *pipeline.Request
	snap := st.update(func(s *Snapshot) {
		switch resp.Status {
		case pipeline.StatusFileAdded:
			if resp.File != nil {
				s.Messages = appendMessage(s.Messages, fmt.Sprintf("File %q added successfully.", resp.File.Name))
			}
			s.HasFiles = true
			s.reaggregated = ""
		case pipeline.StatusFileCountCheck:
			s.HasFiles, _ = resp.Results.(bool)
		case pipeline.StatusKeysFetched:
			keys, _ := resp.Results.([]string)
			s.Keys = append([]string(nil), keys...)
			if !storedPeriod(s.Keys, s.Period) {
				s.Period = aggregation.PeriodLifetime
			}
			next = &pipeline.Request{Type: pipeline.TypeFetchAggregatedData, Filter: s.Period}
		case pipeline.StatusAggregatedData:
			if summary, ok := resp.Results.(*aggregation.PeriodSummary); ok {
				s.Summary = summary
				s.Chart = projection.Chart(summary)
			}
			s.reaggregated = ""
		case pipeline.StatusNoAggregatedData:
			s.Summary = nil
			s.Chart = projection.ChartResponse{}
			if s.reaggregated == s.Period {
				s.Messages = appendMessage(s.Messages, fmt.Sprintf("No listening data for %s.", s.Period))
				return
			}
			s.reaggregated = s.Period
			next = &pipeline.Request{Type: pipeline.TypeCheckAndAggregate}
		case pipeline.StatusAggregationComplete:
			if run, ok := resp.Results.(*aggjob.RunResult); ok {
				cp := *run
				cp.Years = append([]string(nil), run.Years...)
				s.LastRun = &cp
			}
			next = &pipeline.Request{Type: pipeline.TypeFetchKeys}
		case pipeline.StatusError:
			s.Messages = appendMessage(s.Messages, "Error: "+resp.Message)
		}
	})
	return snap, next
}

// update applies fn to a copy of the current snapshot, publishes it and
// notifies subscribers outside the lock.
func (st *Store) update(fn func(*Snapshot)) Snapshot {
	st.mu.Lock()
	next := st.snap
	fn(&next)
	next.Version++
	st.snap = next

	ids := make([]int, 0, len(st.subs))
	for id := range st.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, st.subs[id])
	}
	st.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// appendMessage never shares a backing array with an older snapshot.
func appendMessage(msgs []string, m string) []string {
	out := make([]string, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

// storedPeriod reports whether period resolves to one of keys. Month periods
// resolve through their year.
func storedPeriod(keys []string, period string) bool {
	ref, err := aggregation.ParsePeriod(period)
	if err != nil {
		return false
	}
	for _, k := range keys {
		if k == ref.StoreKey() {
			return true
		}
	}
	return false
}
