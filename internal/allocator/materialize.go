package allocator

import "strconv"

// Group is one materialized side: a label, its items in placement order and
// their total duration.
type Group[T any] struct {
	Label   string `json:"label"`
	Items   []T    `json:"items"`
	Seconds int    `json:"seconds"`
}

// SideLabel returns the 1-based display label for a side index.
func SideLabel(index int) string {
	return "Side " + strconv.Itoa(index+1)
}

// Materialize resolves the item ids in snap against items. The output never
// shares memory with snap, so it is safe to call repeatedly.
func Materialize[T any](snap Snapshot, items []T, seconds func(T) int) []Group[T] {
	groups := make([]Group[T], len(snap))
	for i, members := range snap {
		g := Group[T]{Label: SideLabel(i), Items: make([]T, 0, len(members))}
		for _, id := range members {
			item := items[id]
			g.Items = append(g.Items, item)
			g.Seconds += seconds(item)
		}
		groups[i] = g
	}
	return groups
}
