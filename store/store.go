// Package store writes acquired documents into the output directory.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/pastpapers/models"
)

// Store is a flat output directory. A name collision overwrites the
// existing file.
type Store struct {
	dir string
}

// New creates dir (and parents) if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, models.NewPaperError(models.ErrCodeInvalidInput, "output directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, models.NewPaperError(models.ErrCodeStorage, "failed to create output directory", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// Path returns where name would be written.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes data under name. The bytes go to a temp file in the same
// directory which is renamed into place, so a failed write never leaves a
// partial file under the final name.
func (s *Store) Save(name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", models.NewPaperError(models.ErrCodeInvalidInput, fmt.Sprintf("invalid file name %q", name), nil)
	}

	tmp, err := os.CreateTemp(s.dir, ".partial-*")
	if err != nil {
		return "", models.NewPaperError(models.ErrCodeStorage, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", models.NewPaperError(models.ErrCodeStorage, "failed to write file", err)
	}
	if err := tmp.Close(); err != nil {
		return "", models.NewPaperError(models.ErrCodeStorage, "failed to flush file", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", models.NewPaperError(models.ErrCodeStorage, "failed to set file mode", err)
	}

	final := s.Path(name)
	if err := os.Rename(tmpName, final); err != nil {
		return "", models.NewPaperError(models.ErrCodeStorage, "failed to move file into place", err)
	}
	committed = true
	return final, nil
}
