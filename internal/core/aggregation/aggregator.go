package aggregation

import (
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
)

// accumulator is the running total of one period.
type accumulator struct {
	songMs    int64
	podcastMs int64

	distinctSongs    map[string]struct{}
	distinctPodcasts map[string]struct{}

	songs   *tallyTable[SongKey]
	artists *tallyTable[string]
	shows   *tallyTable[string]
}

func newAccumulator() *accumulator {
	return &accumulator{
		distinctSongs:    make(map[string]struct{}),
		distinctPodcasts: make(map[string]struct{}),
		songs:            newTallyTable[SongKey](),
		artists:          newTallyTable[string](),
		shows:            newTallyTable[string](),
	}
}

// add folds one event into the accumulator.
func (a *accumulator) add(e v1.PlayEvent) {
	if e.IsSong() {
		a.songMs += e.MsPlayed
		a.distinctSongs[e.TrackURI] = struct{}{}
	}
	if e.IsPodcast() {
		a.podcastMs += e.MsPlayed
		a.distinctPodcasts[e.EpisodeURI] = struct{}{}
	}
	if e.TrackName != "" && e.ArtistName != "" {
		a.songs.add(SongKey{Track: e.TrackName, Artist: e.ArtistName}, e.MsPlayed)
	}
	if e.ArtistName != "" {
		a.artists.add(e.ArtistName, e.MsPlayed)
	}
	if e.EpisodeShowName != "" {
		a.shows.add(e.EpisodeShowName, e.MsPlayed)
	}
}

type yearAccumulator struct {
	*accumulator
	months map[time.Month]*accumulator
}

// Tree holds the lifetime accumulator and, lazily, one accumulator per year and month.
type Tree struct {
	lifetime *accumulator
	years    map[int]*yearAccumulator
}

// NewTree returns an empty accumulation tree.
func NewTree() *Tree {
	return &Tree{
		lifetime: newAccumulator(),
		years:    make(map[int]*yearAccumulator),
	}
}

// Add folds an event into lifetime, its year and its month. It returns the parse error
// when the event timestamp is unusable; the tree is left untouched in that case.
func (t *Tree) Add(e v1.PlayEvent) error {
	playedAt, err := e.PlayedAt()
	if err != nil {
		return err
	}

	year, month := playedAt.Year(), playedAt.Month()
	ya, ok := t.years[year]
	if !ok {
		ya = &yearAccumulator{accumulator: newAccumulator(), months: make(map[time.Month]*accumulator)}
		t.years[year] = ya
	}
	ma, ok := ya.months[month]
	if !ok {
		ma = newAccumulator()
		ya.months[month] = ma
	}

	t.lifetime.add(e)
	ya.add(e)
	ma.add(e)
	return nil
}

// Export converts the tree into its lifetime summary with years and months embedded.
// A non-positive limit falls back to DefaultRankLimit.
func (t *Tree) Export(limit int) *PeriodSummary {
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	lifetime := t.lifetime.export(PeriodLifetime, limit)
	lifetime.Years = make(map[int]*PeriodSummary, len(t.years))
	for year, ya := range t.years {
		ys := ya.export(YearKey(year), limit)
		ys.Months = make(map[int]*PeriodSummary, len(ya.months))
		for month, ma := range ya.months {
			ys.Months[int(month)] = ma.export(MonthKey(year, month), limit)
		}
		lifetime.Years[year] = ys
	}
	return lifetime
}

// Aggregate folds a flat sequence of events into a lifetime summary. Events with an
// unparseable timestamp are skipped and counted in Result.Skipped.
func Aggregate(events []v1.PlayEvent, limit int) Result {
	tree := NewTree()
	res := Result{}
	for _, e := range events {
		if err := tree.Add(e); err != nil {
			res.Skipped++
			continue
		}
		res.Events++
	}
	res.Lifetime = tree.Export(limit)
	return res
}
