package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	root string
}

// NewLocalStorage creates a disk-backed document store rooted at dir
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{root: dir}, nil
}

// Store writes the bytes under the logical path
func (s *LocalStorage) Store(ctx context.Context, data []byte, logicalPath string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(logicalPath))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", logicalPath, err)
	}

	return logicalPath, nil
}

// Retrieve reads the bytes for a handle
func (s *LocalStorage) Retrieve(ctx context.Context, handle string) ([]byte, error) {
	full := filepath.Join(s.root, filepath.FromSlash(handle))

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", handle, err)
	}

	return data, nil
}
