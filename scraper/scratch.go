// scraper/scratch.go
package scraper

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ScratchDir is run-local storage for downloaded dumps, keyed by file name.
type ScratchDir struct {
	dir string
}

// NewScratchDir ensures dir exists.
func NewScratchDir(dir string) (*ScratchDir, error) {
	if dir == "" {
		return nil, fmt.Errorf("scratch directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %s: %w", dir, err)
	}
	return &ScratchDir{dir: dir}, nil
}

func (s *ScratchDir) Dir() string { return s.dir }

// Path returns the deterministic location of name.
func (s *ScratchDir) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *ScratchDir) Create(name string) (*os.File, error) {
	return os.Create(s.Path(name))
}

func (s *ScratchDir) Open(name string) (io.ReadCloser, error) {
	return os.Open(s.Path(name))
}

// Remove deletes name. A file that is already gone is an error: the caller
// expected to own it.
func (s *ScratchDir) Remove(name string) error {
	return os.Remove(s.Path(name))
}

// Sweep removes whichever of names exist and returns the ones it removed.
func (s *ScratchDir) Sweep(names []string) ([]string, error) {
	var (
		removed []string
		errs    []error
	)
	for _, n := range names {
		err := os.Remove(s.Path(n))
		switch {
		case err == nil:
			removed = append(removed, n)
		case errors.Is(err, fs.ErrNotExist):
		default:
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}
