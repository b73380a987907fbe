// Package config resolves sidesplit settings with precedence CLI flags > YAML
// config > environment variables > defaults.
//
// Server settings cover the listen port, HTTP timeouts, the global and the
// per-allocation rate limits, plan retention and MaxDeadlineSeconds, which
// caps the search budget an API request may ask for. The allocation section
// holds the defaults applied to every split: side capacity (given as "MM:SS",
// "HH:MM:SS" or seconds), side count, the even flag, deadline, threshold and
// strategy. In the environment these are SIDESPLIT_CAPACITY, SIDESPLIT_SIDES,
// SIDESPLIT_EVEN, SIDESPLIT_DEADLINE, SIDESPLIT_THRESHOLD, SIDESPLIT_STRATEGY
// and SIDESPLIT_MAX_DEADLINE, next to PORT, RATE_LIMIT_RPS, RATE_LIMIT_BURST,
// ALLOCATION_RATE_LIMIT_RPS, ALLOCATION_RATE_LIMIT_BURST and SIDESPLIT_DEBUG.
//
// Validate checks settings shared by both commands; ValidateSplit adds the
// split command's requirements on the input file and capacity.
package config
