package v1

import (
	"fmt"
	"strings"
	"time"
)

// Field names of a streaming-history record as exported by the streaming service.
const (
	FieldTimestamp       = "ts"
	FieldPlatform        = "platform"
	FieldMsPlayed        = "ms_played"
	FieldConnCountry     = "conn_country"
	FieldIPAddr          = "ip_addr"
	FieldTrackName       = "master_metadata_track_name"
	FieldArtistName      = "master_metadata_album_artist_name"
	FieldAlbumName       = "master_metadata_album_album_name"
	FieldTrackURI        = "spotify_track_uri"
	FieldEpisodeName     = "episode_name"
	FieldEpisodeShowName = "episode_show_name"
	FieldEpisodeURI      = "spotify_episode_uri"
	FieldReasonStart     = "reason_start"
	FieldReasonEnd       = "reason_end"
	FieldShuffle         = "shuffle"
	FieldSkipped         = "skipped"
	FieldOffline         = "offline"
	FieldOfflineTS       = "offline_timestamp"
	FieldIncognitoMode   = "incognito_mode"
)

// PlayEvent is one logged listening session: a track or a podcast episode being streamed.
// It is immutable input to aggregation.
type PlayEvent struct {
	// Timestamp is the raw ISO-8601 string from the export. It is parsed lazily by the
	// aggregation engine so that unparseable values can be skipped and counted.
	Timestamp string `json:"ts"`

	MsPlayed int64 `json:"ms_played"`

	// TrackURI is set iff the event is a music play.
	TrackURI string `json:"spotify_track_uri,omitempty"`
	// EpisodeURI is set iff the event is a podcast play.
	EpisodeURI string `json:"spotify_episode_uri,omitempty"`

	TrackName       string `json:"master_metadata_track_name,omitempty"`
	ArtistName      string `json:"master_metadata_album_artist_name,omitempty"`
	AlbumName       string `json:"master_metadata_album_album_name,omitempty"`
	EpisodeName     string `json:"episode_name,omitempty"`
	EpisodeShowName string `json:"episode_show_name,omitempty"`

	// Pass-through attributes, not used by aggregation.
	Platform    string `json:"platform,omitempty"`
	ConnCountry string `json:"conn_country,omitempty"`
	ReasonStart string `json:"reason_start,omitempty"`
	ReasonEnd   string `json:"reason_end,omitempty"`
	Shuffle     bool   `json:"shuffle"`
	Skipped     bool   `json:"skipped"`
	Offline     bool   `json:"offline"`
	Incognito   bool   `json:"incognito_mode"`
}

// timestampLayouts are tried in order when parsing PlayEvent.Timestamp.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// PlayedAt parses the event timestamp. Values without a zone are read as UTC.
func (e PlayEvent) PlayedAt() (time.Time, error) {
	ts := strings.TrimSpace(e.Timestamp)
	if ts == "" {
		return time.Time{}, fmt.Errorf("ts is empty")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("ts %q is not an ISO-8601 date-time", e.Timestamp)
}

// IsSong reports whether the event is a music play.
func (e PlayEvent) IsSong() bool { return e.TrackURI != "" }

// IsPodcast reports whether the event is a podcast play.
func (e PlayEvent) IsPodcast() bool { return e.EpisodeURI != "" }
