// Package track models timed tracks and reads them from line-oriented track
// lists of the form "duration title", where duration is H:M:S, M:S or S.
package track
