package allocator

// side accumulates items during the search. push and pop are strictly LIFO
// and mirror the recursion: every push is undone by the pop of the same frame.
type side struct {
	load    int
	members []int
	sizes   []int
}

func newSides(count, itemCount int) []side {
	sides := make([]side, count)
	for i := range sides {
		sides[i].members = make([]int, 0, itemCount)
		sides[i].sizes = make([]int, 0, itemCount)
	}
	return sides
}

func (s *side) push(id, seconds int) {
	s.members = append(s.members, id)
	s.sizes = append(s.sizes, seconds)
	s.load += seconds
}

func (s *side) pop() {
	last := len(s.members) - 1
	s.load -= s.sizes[last]
	s.members = s.members[:last]
	s.sizes = s.sizes[:last]
}
