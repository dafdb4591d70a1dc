package local

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/CaioWing/repairdesk/internal/domain"
)

// LocalStore keeps generated files, such as export workbooks, flat under
// one directory. Paths it hands out are the only ones it will open or delete.
type LocalStore struct {
	root string
}

func New(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Save writes reader to a file named after the base of name. An existing
// file is never overwritten; a numeric suffix is added instead. The file
// appears only once fully written.
func (s *LocalStore) Save(name string, reader io.Reader) (string, int64, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "", 0, fmt.Errorf("%w: empty file name", domain.ErrInvalidInput)
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("write file: %w", err)
	}

	path, err := s.freePath(base)
	if err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", 0, fmt.Errorf("move file: %w", err)
	}
	return path, n, nil
}

func (s *LocalStore) freePath(base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 0; i < 1000; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
		}
		path := filepath.Join(s.root, candidate)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: too many files named %s", domain.ErrConflict, base)
}

func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	if !s.owns(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes a file. Missing files are not an error.
func (s *LocalStore) Delete(path string) error {
	if !s.owns(path) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) owns(path string) bool {
	return filepath.Dir(filepath.Clean(path)) == s.root
}
