package projection

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// Chart rolls a summary up into song-hour bars: one per year for lifetime, one per
// month for a year. A month summary has no finer breakdown and yields no points.
func Chart(s *aggregation.PeriodSummary) ChartResponse {
	resp := ChartResponse{Period: s.Period, Points: []ChartPoint{}}

	switch {
	case len(s.Years) > 0:
		resp.Axis = "year"
		for _, y := range sortedKeys(s.Years) {
			resp.Points = append(resp.Points, ChartPoint{
				Label: strconv.Itoa(y),
				Key:   aggregation.YearKey(y),
				Hours: songHours(s.Years[y]),
			})
		}
	case len(s.Months) > 0:
		resp.Axis = "month"
		year, _ := strconv.Atoi(s.Period)
		for _, m := range sortedKeys(s.Months) {
			resp.Points = append(resp.Points, ChartPoint{
				Label: strings.ToUpper(time.Month(m).String()[:3]),
				Key:   aggregation.MonthKey(year, time.Month(m)),
				Hours: songHours(s.Months[m]),
			})
		}
	}
	return resp
}

// songHours keeps full precision; clients round for display.
func songHours(s *aggregation.PeriodSummary) decimal.Decimal {
	return decimal.NewFromInt(s.TotalSongMsPlayed).Div(msPerHour)
}

func sortedKeys(m map[int]*aggregation.PeriodSummary) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
