package allocator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type namedItem struct {
	name    string
	seconds int
}

func TestMaterialize(t *testing.T) {
	t.Parallel()

	items := []namedItem{{"a", 500}, {"b", 400}, {"c", 300}, {"d", 200}, {"e", 100}}
	snap := Snapshot{{0}, {2, 3}, {1, 4}}
	seconds := func(it namedItem) int { return it.seconds }

	groups := Materialize(snap, items, seconds)
	require.Len(t, groups, 3)
	require.Equal(t, "Side 1", groups[0].Label)
	require.Equal(t, "Side 3", groups[2].Label)
	require.Equal(t, []namedItem{{"c", 300}, {"d", 200}}, groups[1].Items)
	for _, g := range groups {
		require.Equal(t, 500, g.Seconds)
	}

	again := Materialize(snap, items, seconds)
	require.Equal(t, groups, again)

	groups[0].Items[0].name = "changed"
	require.Equal(t, "a", items[0].name)
	require.Equal(t, Snapshot{{0}, {2, 3}, {1, 4}}, snap)
}

func TestMaterializeEmptySide(t *testing.T) {
	t.Parallel()

	groups := Materialize(Snapshot{{0}, {}}, []int{42}, func(v int) int { return v })
	require.Len(t, groups, 2)
	require.Empty(t, groups[1].Items)
	require.Zero(t, groups[1].Seconds)
}
