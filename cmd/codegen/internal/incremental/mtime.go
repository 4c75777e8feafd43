package incremental

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNoFiles is returned when a file set that must be non-empty is empty.
	ErrNoFiles = errors.New("no files matched")

	// ErrEmptyPattern is returned for a blank include pattern.
	ErrEmptyPattern = errors.New("empty glob pattern")
)

// ExpandGlob returns the regular files matching pattern, sorted.
// Relative patterns resolve against the working directory; "**" matches
// any number of directories.
func ExpandGlob(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// ModTime returns the modification time of the file at path.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// LatestModTime returns the most recent modification time among paths.
// Any failed lookup fails the whole call.
func LatestModTime(paths []string) (time.Time, error) {
	if len(paths) == 0 {
		return time.Time{}, ErrNoFiles
	}

	var latest time.Time
	for _, path := range paths {
		mtime, err := ModTime(path)
		if err != nil {
			return time.Time{}, err
		}
		if mtime.After(latest) {
			latest = mtime
		}
	}
	return latest, nil
}
