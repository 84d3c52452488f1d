package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ShorthandAndLongForm(t *testing.T) {
	spec, err := Parse([]byte(`
name: test
version: 1
fields:
  b: string|null!
  a:
    type: integer!
    min: 0
  c: bool
`))
	require.NoError(t, err)
	require.Len(t, spec.Fields, 3)

	// declaration order is kept
	assert.Equal(t, "b", spec.Fields[0].Name)
	assert.Equal(t, "a", spec.Fields[1].Name)
	assert.Equal(t, "c", spec.Fields[2].Name)

	assert.Equal(t, []Kind{KindString, KindNull}, spec.Fields[0].Types)
	assert.True(t, spec.Fields[0].Required)

	assert.Equal(t, []Kind{KindInteger}, spec.Fields[1].Types)
	assert.True(t, spec.Fields[1].Required)
	require.NotNil(t, spec.Fields[1].Min)
	assert.Equal(t, 0.0, *spec.Fields[1].Min)

	assert.Equal(t, []Kind{KindBoolean}, spec.Fields[2].Types)
	assert.False(t, spec.Fields[2].Required)

	assert.Equal(t, []string{"b", "a"}, spec.Required())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "unknown type",
			input:   "name: t\nversion: 1\nfields:\n  a: uuid!\n",
			wantErr: "unsupported type",
		},
		{
			name:    "missing name",
			input:   "version: 1\nfields:\n  a: string\n",
			wantErr: "spec name is required",
		},
		{
			name:    "zero version",
			input:   "name: t\nversion: 0\nfields:\n  a: string\n",
			wantErr: "version must be >= 1",
		},
		{
			name:    "fields not a mapping",
			input:   "name: t\nversion: 1\nfields:\n  - a\n",
			wantErr: "'fields' must be a mapping",
		},
		{
			name:    "min on string",
			input:   "name: t\nversion: 1\nfields:\n  a:\n    type: string\n    min: 1\n",
			wantErr: "min requires an integer or number type",
		},
		{
			name:    "long form without type",
			input:   "name: t\nversion: 1\nfields:\n  a:\n    min: 1\n",
			wantErr: "field missing 'type'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault_MirrorsExportFormat(t *testing.T) {
	spec := Default()
	assert.Equal(t, "streaming-history", spec.Name)

	required := spec.Required()
	assert.Contains(t, required, "ts")
	assert.Contains(t, required, "ms_played")
	assert.Contains(t, required, "spotify_track_uri")
	assert.NotContains(t, required, "episode_show_name")
	assert.NotContains(t, required, "offline_timestamp")
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	spec, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Name, spec.Name)

	_, err = Load("/does/not/exist.yaml")
	require.Error(t, err)
}
