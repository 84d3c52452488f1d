package storage

import (
	"sort"
	"strconv"

	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
)

// SortKeys orders summary keys the way ListSummaryKeys reports them: "lifetime" first,
// then numeric years ascending, then anything else lexically.
func SortKeys(keys []string) []string {
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := keyRank(keys[i]), keyRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		yi, ei := strconv.Atoi(keys[i])
		yj, ej := strconv.Atoi(keys[j])
		if ei == nil && ej == nil {
			return yi < yj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func keyRank(k string) int {
	if k == aggregation.PeriodLifetime {
		return 0
	}
	if _, err := strconv.Atoi(k); err == nil {
		return 1
	}
	return 2
}

// Current reports whether a stored summary was produced by the running schema version.
func Current(s *aggregation.PeriodSummary) bool {
	return s != nil && s.SchemaVersion == aggregation.SchemaVersion
}
