package allocator

// ProbeOrder returns the order in which sides are tried for item k. Even
// items sweep upwards from (k/2) mod limit, odd items sweep downwards from
// the mirrored position, so consecutive items land on different sides and the
// first side is not filled before the others.
func ProbeOrder(k, limit int) []int {
	if limit <= 0 {
		return []int{}
	}
	order := make([]int, limit)
	probeInto(order, k, limit)
	return order
}

func probeInto(dst []int, k, limit int) {
	offset := (k / 2) % limit
	if k%2 == 0 {
		for i := 0; i < limit; i++ {
			dst[i] = (offset + i) % limit
		}
		return
	}
	start := limit - 1 - offset
	for i := 0; i < limit; i++ {
		dst[i] = (start - i + limit) % limit
	}
}

func probeTable(items, limit int) [][]int {
	table := make([][]int, items)
	for k := range table {
		table[k] = ProbeOrder(k, limit)
	}
	return table
}
