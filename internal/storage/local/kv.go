package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/CaioWing/repairdesk/internal/domain"
)

// KVStore persists key/value entries as one file per key.
type KVStore struct {
	dir string
}

func NewKV(dir string) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create kv dir: %w", err)
	}
	return &KVStore{dir: dir}, nil
}

func (s *KVStore) Get(_ context.Context, key string) (string, error) {
	b, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrCacheMiss
		}
		return "", fmt.Errorf("read key %s: %w", key, err)
	}
	return string(b), nil
}

// Set writes through a temp file and rename so readers never see a partial value.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	path := s.keyPath(key)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write key %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename key %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) keyPath(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key))
}
