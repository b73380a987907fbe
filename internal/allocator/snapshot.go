package allocator

// Snapshot lists item ids per side, in placement order.
type Snapshot [][]int

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for i, members := range s {
		out[i] = append(make([]int, 0, len(members)), members...)
	}
	return out
}
