package track

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

const whitespace = " \t"

// ParseLine splits a "duration title" line into a Track. The title is
// everything after the whitespace that follows the duration and may be empty.
func ParseLine(line string) (Track, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Track{}, ErrInvalidLine
	}

	duration, title := line, ""
	if pos := strings.IndexAny(line, whitespace); pos >= 0 {
		duration = line[:pos]
		title = strings.TrimLeft(line[pos:], whitespace)
	}

	seconds, err := ParseTime(duration)
	if err != nil {
		return Track{}, err
	}
	return Track{Title: title, Seconds: seconds}, nil
}

// Parse reads one track per line. Blank lines and lines starting with '#'
// are skipped. Errors carry the 1-based line number.
func Parse(r io.Reader) ([]Track, error) {
	var tracks []Track

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		t, err := ParseLine(trimmed)
		if err != nil {
			return nil, &FileError{Line: lineNo, Err: err}
		}
		tracks = append(tracks, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	return tracks, nil
}

// LoadFile reads the track list at path from fs.
//
// Errors returned:
//   - ErrFileNotFound: file does not exist
//   - ErrFilePermission: cannot read file due to permissions
//   - ErrNoTracks: file contains only comments or blank lines
//   - ErrInvalidTime / ErrInvalidLine: a line could not be parsed
func LoadFile(fs afero.Fs, path string) ([]Track, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, wrapFileError(path, err)
	}
	defer f.Close()

	tracks, err := Parse(f)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			fe.Path = path
			return nil, fe
		}
		return nil, &FileError{Path: path, Err: err}
	}
	return tracks, nil
}

func wrapFileError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return &FileError{Path: path, Err: ErrFileNotFound}
	}
	if errors.Is(err, os.ErrPermission) {
		return &FileError{Path: path, Err: ErrFilePermission}
	}
	return &FileError{Path: path, Err: err}
}
