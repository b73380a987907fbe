package planner

import "errors"

var (
	// ErrInvalidStrategy is returned for an unknown strategy name.
	ErrInvalidStrategy = errors.New("strategy must be one of: search, sequential")
	// ErrNoSolution means no assignment fits the capacity; retrying will not help.
	ErrNoSolution = errors.New("tracks cannot be split across the sides without exceeding capacity")
	// ErrNoSolutionInTime means the deadline expired before any complete assignment was found.
	ErrNoSolutionInTime = errors.New("no complete assignment found before the deadline")
)
