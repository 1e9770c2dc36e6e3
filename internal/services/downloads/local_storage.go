package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage serves product files from a directory on disk. File
// names come from the catalog, never from the client, but traversal is
// still rejected to keep the contract obvious.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("downloads directory is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve downloads directory: %w", err)
	}

	return &LocalStorage{root: abs}, nil
}

func (s *LocalStorage) Open(_ context.Context, fileName string) (io.ReadCloser, int64, error) {
	cleaned := filepath.Clean(fileName)
	if cleaned == "" || cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return nil, 0, ErrFileNotFound
	}

	path := filepath.Join(s.root, cleaned)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrFileNotFound
		}
		return nil, 0, fmt.Errorf("stat product file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, ErrFileNotFound
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open product file: %w", err)
	}

	return file, info.Size(), nil
}
