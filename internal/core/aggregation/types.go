package aggregation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// PeriodLifetime is the key of the all-time summary.
	PeriodLifetime = "lifetime"

	// SchemaVersion is stamped on every exported summary. Stored summaries with a
	// different version are treated as missing and get recomputed.
	SchemaVersion = 1

	// DefaultRankLimit caps every ranked list of an exported summary.
	DefaultRankLimit = 50

	// msPerHour converts both song and podcast play time to hours.
	msPerHour = 3_600_000
)

// ErrEmptyInput is returned when there is nothing to aggregate.
var ErrEmptyInput = errors.New("no listening history to aggregate")

// SongKey identifies a song by its track and artist name.
type SongKey struct {
	Track  string
	Artist string
}

// Tally is the number of plays and the cumulative play time of one ranked item.
type Tally struct {
	Count int64 `json:"count"`
	Ms    int64 `json:"ms"`
}

// RankedSong is one entry of PeriodSummary.RankedSongs.
type RankedSong struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	Count      Tally  `json:"count"`
}

// RankedArtist is one entry of PeriodSummary.TopArtists.
type RankedArtist struct {
	Artist string `json:"artist"`
	Count  Tally  `json:"count"`
}

// RankedPodcast is one entry of PeriodSummary.TopPodcasts.
type RankedPodcast struct {
	EpisodeShowName string `json:"episode_show_name"`
	Count           Tally  `json:"count"`
}

// PeriodSummary is the exported, persisted view of one aggregation period.
//
// The lifetime summary embeds every year under Years; each year summary embeds its
// months under Months. Month summaries carry neither.
type PeriodSummary struct {
	Period        string `json:"period"`
	SchemaVersion int    `json:"schemaVersion"`

	TotalSongHoursPlayed    float64 `json:"totalSongHoursPlayed"`
	TotalPodcastHoursPlayed float64 `json:"totalPodcastHoursPlayed"`
	TotalSongMsPlayed       int64   `json:"totalSongMsPlayed"`
	TotalPodcastMsPlayed    int64   `json:"totalPodcastMsPlayed"`

	DistinctSongs    int `json:"distinctSongs"`
	DistinctPodcasts int `json:"distinctPodcasts"`

	RankedSongs []RankedSong    `json:"rankedSongs"`
	TopArtists  []RankedArtist  `json:"topArtists"`
	TopPodcasts []RankedPodcast `json:"topPodcasts"`

	Years  map[int]*PeriodSummary `json:"years,omitempty"`
	Months map[int]*PeriodSummary `json:"months,omitempty"`
}

// Result is the outcome of one aggregation run.
type Result struct {
	Lifetime *PeriodSummary

	// Events is the number of events folded into the tree.
	Events int

	// Skipped counts events whose timestamp could not be parsed.
	Skipped int
}

// YearKey returns the period key of a year summary.
func YearKey(year int) string {
	return strconv.Itoa(year)
}

// MonthKey returns the period key of a month summary, e.g. "2023-05".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// PeriodRef is a parsed period key.
type PeriodRef struct {
	Lifetime bool
	Year     int
	Month    time.Month // zero unless the key is month-qualified
}

// StoreKey returns the Summary Store key holding this period: "lifetime" or the year.
func (p PeriodRef) StoreKey() string {
	if p.Lifetime {
		return PeriodLifetime
	}
	return YearKey(p.Year)
}

// ParsePeriod parses "lifetime", "2023" or "2023-05" (also "2023-5" and "2023/05").
// Keys are matched case-insensitively.
func ParsePeriod(key string) (PeriodRef, error) {
	k := NormalizeKey(key)
	if k == PeriodLifetime {
		return PeriodRef{Lifetime: true}, nil
	}

	yearPart, monthPart, qualified := strings.Cut(strings.ReplaceAll(k, "/", "-"), "-")
	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 1 || year > 9999 {
		return PeriodRef{}, fmt.Errorf("invalid period %q", key)
	}
	ref := PeriodRef{Year: year}
	if !qualified {
		return ref, nil
	}

	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return PeriodRef{}, fmt.Errorf("invalid month in period %q", key)
	}
	ref.Month = time.Month(month)
	return ref, nil
}

// NormalizeKey lower-cases and trims a period key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
