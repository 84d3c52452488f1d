package aggregation

import "sort"

// tallyTable counts plays and play time per key, remembering first-seen order so that
// rankings break ties deterministically.
type tallyTable[K comparable] struct {
	index   map[K]int
	keys    []K
	tallies []Tally
}

func newTallyTable[K comparable]() *tallyTable[K] {
	return &tallyTable[K]{index: make(map[K]int)}
}

// add records one play of key lasting ms.
func (t *tallyTable[K]) add(key K, ms int64) {
	i, ok := t.index[key]
	if !ok {
		i = len(t.keys)
		t.index[key] = i
		t.keys = append(t.keys, key)
		t.tallies = append(t.tallies, Tally{})
	}
	t.tallies[i].Count++
	t.tallies[i].Ms += ms
}

func (t *tallyTable[K]) len() int { return len(t.keys) }

// top returns up to limit entries ordered by descending Ms. Entries with equal Ms keep
// their first-seen order.
func (t *tallyTable[K]) top(limit int) []rankEntry[K] {
	order := make([]int, len(t.keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return t.tallies[order[a]].Ms > t.tallies[order[b]].Ms
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	out := make([]rankEntry[K], len(order))
	for i, idx := range order {
		out[i] = rankEntry[K]{Key: t.keys[idx], Tally: t.tallies[idx]}
	}
	return out
}

type rankEntry[K comparable] struct {
	Key   K
	Tally Tally
}
