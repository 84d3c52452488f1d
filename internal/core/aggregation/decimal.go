package aggregation

import (
	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ExtractDecimal pulls a numeric value from a raw record by field name.
// Returns decimal.Zero if the field is missing, null, or not a recognized numeric type.
// JSON numbers unmarshal to float64, the common path. NewFromFloat
// converts it to an exact decimal representation.
func ExtractDecimal(data map[string]interface{}, field string) decimal.Decimal {
	if field == "" {
		return decimal.Zero
	}
	v, ok := data[field]
	if !ok {
		return decimal.Zero
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt(int64(val))
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err == nil {
			return d
		}
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

// ExtractString returns the string value of a field as recorded, or "" when it is
// missing, null or not a string.
func ExtractString(data map[string]interface{}, field string) string {
	s, _ := data[field].(string)
	return s
}

// ExtractBool returns the boolean value of a field, or false.
func ExtractBool(data map[string]interface{}, field string) bool {
	b, _ := data[field].(bool)
	return b
}

// EventFromRecord maps a validated raw record onto a PlayEvent. Negative durations are
// clamped to zero so aggregates stay additive.
func EventFromRecord(data map[string]interface{}) v1.PlayEvent {
	ms := ExtractDecimal(data, v1.FieldMsPlayed).IntPart()
	if ms < 0 {
		ms = 0
	}

	ts, _ := data[v1.FieldTimestamp].(string)
	return v1.PlayEvent{
		Timestamp:       ts,
		MsPlayed:        ms,
		TrackURI:        ExtractString(data, v1.FieldTrackURI),
		EpisodeURI:      ExtractString(data, v1.FieldEpisodeURI),
		TrackName:       ExtractString(data, v1.FieldTrackName),
		ArtistName:      ExtractString(data, v1.FieldArtistName),
		AlbumName:       ExtractString(data, v1.FieldAlbumName),
		EpisodeName:     ExtractString(data, v1.FieldEpisodeName),
		EpisodeShowName: ExtractString(data, v1.FieldEpisodeShowName),
		Platform:        ExtractString(data, v1.FieldPlatform),
		ConnCountry:     ExtractString(data, v1.FieldConnCountry),
		ReasonStart:     ExtractString(data, v1.FieldReasonStart),
		ReasonEnd:       ExtractString(data, v1.FieldReasonEnd),
		Shuffle:         ExtractBool(data, v1.FieldShuffle),
		Skipped:         ExtractBool(data, v1.FieldSkipped),
		Offline:         ExtractBool(data, v1.FieldOffline),
		Incognito:       ExtractBool(data, v1.FieldIncognitoMode),
	}
}

// EventsFromRecords maps every raw record onto a PlayEvent.
func EventsFromRecords(records []map[string]interface{}) []v1.PlayEvent {
	events := make([]v1.PlayEvent, len(records))
	for i, r := range records {
		events[i] = EventFromRecord(r)
	}
	return events
}
