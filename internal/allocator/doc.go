// Package allocator assigns timed items to a fixed number of fixed-capacity
// sides so that no side overflows and side loads are as even as possible.
//
// The default engine is an anytime backtracking search: it enumerates every
// capacity-respecting placement in an alternating probe order, scores each
// complete assignment by the population standard deviation of side loads and
// keeps the best one found before its Deadline expires.
package allocator
