package schema

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() map[string]interface{} {
	return map[string]interface{}{
		"ts":                                "2021-03-01T10:00:00Z",
		"platform":                          "android",
		"ms_played":                         float64(215000),
		"conn_country":                      "DE",
		"ip_addr":                           "10.0.0.1",
		"master_metadata_track_name":        "Song",
		"master_metadata_album_artist_name": "Artist",
		"master_metadata_album_album_name":  "Album",
		"spotify_track_uri":                 "spotify:track:1",
		"reason_start":                      "trackdone",
		"reason_end":                        "trackdone",
		"shuffle":                           false,
		"skipped":                           false,
		"offline":                           false,
		"incognito_mode":                    false,
	}
}

func asValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %T", err)
	return ve
}

func TestValidateBatch_AcceptsValid(t *testing.T) {
	v := NewValidator(Default())

	podcast := validRecord()
	podcast["master_metadata_track_name"] = nil
	podcast["master_metadata_album_artist_name"] = nil
	podcast["master_metadata_album_album_name"] = nil
	podcast["spotify_track_uri"] = nil
	podcast["episode_show_name"] = "Show"
	podcast["spotify_episode_uri"] = "spotify:episode:1"
	podcast["offline_timestamp"] = float64(1614592800.5)
	podcast["some_future_field"] = []interface{}{"ignored"}

	require.NoError(t, v.ValidateBatch([]interface{}{validRecord(), podcast}))
	require.NoError(t, v.ValidateBatch([]interface{}{}))
	require.NoError(t, v.ValidateBatch([]map[string]interface{}{validRecord()}))
}

func TestValidateBatch_MissingRequiredRejectsBatch(t *testing.T) {
	v := NewValidator(Default())

	bad := validRecord()
	delete(bad, "ts")

	err := v.ValidateBatch([]interface{}{validRecord(), bad})
	ve := asValidationError(t, err)
	assert.Equal(t, 1, ve.Record)
	assert.Equal(t, "ts", ve.Field)
	assert.Equal(t, "required field is missing", ve.Message)
}

func TestValidateBatch_TypeMismatch(t *testing.T) {
	v := NewValidator(Default())

	tests := []struct {
		name     string
		field    string
		value    interface{}
		expected string
		actual   string
	}{
		{"string field given number", "platform", float64(1), "string", "number"},
		{"union rejects boolean", "spotify_track_uri", true, "string|null", "boolean"},
		{"integer rejects fraction", "ms_played", 1.5, "integer", "number"},
		{"boolean rejects string", "shuffle", "false", "boolean", "string"},
		{"required non-null rejects null", "ts", nil, "string", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec[tt.field] = tt.value

			ve := asValidationError(t, v.ValidateBatch([]interface{}{rec}))
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.expected, ve.ExpectedType)
			assert.Equal(t, tt.actual, ve.ActualType)
		})
	}
}

func TestValidateBatch_FailsFastOnFirstViolation(t *testing.T) {
	v := NewValidator(Default())

	first := validRecord()
	first["platform"] = float64(3)
	delete(first, "reason_end")
	second := validRecord()
	delete(second, "ts")

	ve := asValidationError(t, v.ValidateBatch([]interface{}{first, second}))
	// required checks run before type checks within a record
	assert.Equal(t, 0, ve.Record)
	assert.Equal(t, "reason_end", ve.Field)
}

func TestValidateBatch_MinConstraint(t *testing.T) {
	v := NewValidator(Default())

	rec := validRecord()
	rec["ms_played"] = float64(-10)

	ve := asValidationError(t, v.ValidateBatch([]interface{}{rec}))
	assert.Equal(t, "ms_played", ve.Field)
	assert.Contains(t, ve.Message, "less than minimum")
}

func TestValidateBatch_JSONNumber(t *testing.T) {
	v := NewValidator(Default())

	rec := validRecord()
	rec["ms_played"] = json.Number("1200")
	require.NoError(t, v.ValidateBatch([]interface{}{rec}))

	rec["ms_played"] = json.Number("12.5")
	ve := asValidationError(t, v.ValidateBatch([]interface{}{rec}))
	assert.Equal(t, "ms_played", ve.Field)
}

func TestValidateBatch_NonSequence(t *testing.T) {
	v := NewValidator(Default())

	ve := asValidationError(t, v.ValidateBatch(validRecord()))
	assert.Equal(t, -1, ve.Record)
	assert.Equal(t, "array", ve.ExpectedType)
	assert.Equal(t, "object", ve.ActualType)

	ve = asValidationError(t, v.ValidateBatch([]interface{}{"not an object"}))
	assert.Equal(t, 0, ve.Record)
	assert.Equal(t, "string", ve.ActualType)
}

func TestValidationError_Details(t *testing.T) {
	err := NewTypeMismatchError(Default(), 4, "shuffle", "boolean", "string")

	var detailer ValidationDetailer
	require.True(t, errors.As(error(err), &detailer))
	d := detailer.Details()
	assert.Equal(t, 4, d["record"])
	assert.Equal(t, "shuffle", d["field"])
	assert.Equal(t, "boolean", d["expected_type"])
	assert.Contains(t, err.Error(), "record 4")
}
