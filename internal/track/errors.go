package track

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTime is returned when a duration is not in H:M:S, M:S or S form.
	ErrInvalidTime = errors.New("invalid time string")
	// ErrInvalidLine is returned when a track line has no leading duration.
	ErrInvalidLine = errors.New("track line must start with a duration")
	// ErrFileNotFound is returned when the track list does not exist.
	ErrFileNotFound = errors.New("track list not found")
	// ErrFilePermission is returned when the track list cannot be read due to permissions.
	ErrFilePermission = errors.New("permission denied reading track list")
	// ErrNoTracks is returned when a track list contains no tracks.
	ErrNoTracks = errors.New("track list contains no tracks")
)

// FileError wraps track list errors with the file path and, when known, the line number.
type FileError struct {
	Path string
	Line int
	Err  error
}

func (e *FileError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Err.Error())
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Err.Error())
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Path)
	default:
		return e.Err.Error()
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}
