package projection

import (
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// SummaryResponse is the body of GET /v1/summaries/:period.
type SummaryResponse struct {
	Period  string                     `json:"period"`
	Summary *aggregation.PeriodSummary `json:"results"`
}

// KeysResponse is the body of GET /v1/summaries.
type KeysResponse struct {
	Keys []string `json:"results"`
}

// ChartPoint is one bar of the song-hours chart.
type ChartPoint struct {
	Label string          `json:"label"`
	Key   string          `json:"key"`
	Hours decimal.Decimal `json:"hours"`
}

// ChartResponse is the body of GET /v1/summaries/:period/chart.
type ChartResponse struct {
	Period string       `json:"period"`
	Axis   string       `json:"axis"` // "year" or "month"
	Points []ChartPoint `json:"points"`
}
