// Package local stores uploads on the local disk; the default backend for
// DEV and single-node deployments.
package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/learntrack/storage/files"
)

type Storage struct {
	root string
}

var _ files.Storage = (*Storage)(nil)

func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &Storage{root: root}, nil
}

func (s *Storage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ref, err := files.UniqueName(name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(s.root, ref))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer func() { _ = f.Close() }()

	if err = files.CopyLimited(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return ref, nil
}

func (s *Storage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	// refs are bare names; reject anything that walks out of the root
	if ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.root, ref))
}
