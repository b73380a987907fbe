package allocator

import "math"

// Deviation returns the population standard deviation of loads. An empty
// slice scores 0.
func Deviation(loads []int) float64 {
	if len(loads) == 0 {
		return 0
	}
	total := 0.0
	for _, l := range loads {
		total += float64(l)
	}
	mean := total / float64(len(loads))

	variance := 0.0
	for _, l := range loads {
		diff := mean - float64(l)
		variance += diff * diff
	}
	variance /= float64(len(loads))

	return math.Sqrt(variance)
}

func sideLoads(sides []side, dst []int) []int {
	dst = dst[:0]
	for i := range sides {
		dst = append(dst, sides[i].load)
	}
	return dst
}
