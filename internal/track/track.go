package track

import (
	"sort"
)

// Track is a titled item with a duration in whole seconds.
type Track struct {
	Title   string `json:"title" yaml:"title"`
	Seconds int    `json:"seconds" yaml:"seconds"`
}

// String renders the track as "HH:MM:SS - Title".
func (t Track) String() string {
	return FormatTime(t.Seconds, ":") + " - " + t.Title
}

// Total returns the summed duration of tracks in seconds.
func Total(tracks []Track) int {
	total := 0
	for _, t := range tracks {
		total += t.Seconds
	}
	return total
}

// Durations returns the track durations in input order.
func Durations(tracks []Track) []int {
	out := make([]int, len(tracks))
	for i, t := range tracks {
		out[i] = t.Seconds
	}
	return out
}

// RequiredSides returns ceil(total/capacity), bumped to the next even number
// when even is set. A non-positive capacity yields 0.
func RequiredSides(total, capacity int, even bool) int {
	if capacity <= 0 {
		return 0
	}
	sides := total / capacity
	if total%capacity != 0 {
		sides++
	}
	if even && sides%2 == 1 {
		sides++
	}
	return sides
}

// SortByDuration returns a copy of tracks ordered longest first. Tracks with
// equal durations keep their list order.
func SortByDuration(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	copy(out, tracks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Seconds > out[j].Seconds
	})
	return out
}
