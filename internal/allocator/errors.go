package allocator

import "errors"

var (
	// ErrInvalidCapacity is returned when the side capacity is not positive.
	ErrInvalidCapacity = errors.New("side capacity must be a positive number of seconds")
	// ErrInvalidSides is returned when the requested side count is not positive.
	ErrInvalidSides = errors.New("side count must be a positive integer")
	// ErrNoItems is returned when there is nothing to allocate.
	ErrNoItems = errors.New("at least one item is required")
	// ErrInvalidDuration is returned when an item has a negative duration or
	// the durations sum past the int range.
	ErrInvalidDuration = errors.New("item durations must be non-negative and their total must fit in an int")
	// ErrInvalidThreshold is returned when the early-stop threshold is negative.
	ErrInvalidThreshold = errors.New("threshold must be non-negative")
)
