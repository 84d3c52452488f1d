package aggregation

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

var msPerHourDecimal = decimal.NewFromInt(msPerHour)

// HoursFromMs converts play time in milliseconds to hours.
func HoursFromMs(ms int64) float64 {
	return decimal.NewFromInt(ms).Div(msPerHourDecimal).InexactFloat64()
}

func (a *accumulator) export(period string, limit int) *PeriodSummary {
	s := &PeriodSummary{
		Period:                  period,
		SchemaVersion:           SchemaVersion,
		TotalSongHoursPlayed:    HoursFromMs(a.songMs),
		TotalPodcastHoursPlayed: HoursFromMs(a.podcastMs),
		TotalSongMsPlayed:       a.songMs,
		TotalPodcastMsPlayed:    a.podcastMs,
		DistinctSongs:           len(a.distinctSongs),
		DistinctPodcasts:        len(a.distinctPodcasts),
		RankedSongs:             make([]RankedSong, 0, min(limit, a.songs.len())),
		TopArtists:              make([]RankedArtist, 0, min(limit, a.artists.len())),
		TopPodcasts:             make([]RankedPodcast, 0, min(limit, a.shows.len())),
	}

	for _, e := range a.songs.top(limit) {
		s.RankedSongs = append(s.RankedSongs, RankedSong{TrackName: e.Key.Track, ArtistName: e.Key.Artist, Count: e.Tally})
	}
	for _, e := range a.artists.top(limit) {
		s.TopArtists = append(s.TopArtists, RankedArtist{Artist: e.Key, Count: e.Tally})
	}
	for _, e := range a.shows.top(limit) {
		s.TopPodcasts = append(s.TopPodcasts, RankedPodcast{EpisodeShowName: e.Key, Count: e.Tally})
	}
	return s
}

// Flatten splits a lifetime summary into Summary Store records: one under
// PeriodLifetime and one per year. Nested summaries stay embedded in their parents.
func Flatten(lifetime *PeriodSummary) map[string]*PeriodSummary {
	out := make(map[string]*PeriodSummary, len(lifetime.Years)+1)
	out[PeriodLifetime] = lifetime
	for year, ys := range lifetime.Years {
		out[YearKey(year)] = ys
	}
	return out
}

// SortedYearKeys returns the year keys of a lifetime summary in ascending order.
func SortedYearKeys(lifetime *PeriodSummary) []string {
	years := make([]int, 0, len(lifetime.Years))
	for y := range lifetime.Years {
		years = append(years, y)
	}
	sort.Ints(years)

	keys := make([]string, len(years))
	for i, y := range years {
		keys[i] = strconv.Itoa(y)
	}
	return keys
}

// Select resolves ref inside a stored record: the record itself, or one of its months.
// The second return value is false when the month has no plays.
func (s *PeriodSummary) Select(ref PeriodRef) (*PeriodSummary, bool) {
	if ref.Month == 0 {
		return s, true
	}
	m, ok := s.Months[int(ref.Month)]
	return m, ok
}
