package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/filex"
)

// FSBlobStore keeps blobs as plain files under a single directory.
type FSBlobStore struct {
	dir string
}

// NewFSBlobStore bootstraps the uploads directory.
func NewFSBlobStore(dir string) (*FSBlobStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("uploads dir: %w", err)
	}
	return &FSBlobStore{dir: abs}, nil
}

// resolve rejects names that would escape the store directory.
func (s *FSBlobStore) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", common.ErrNotFound
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FSBlobStore) Save(ctx context.Context, name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(path, data, 0o660); err != nil {
		return fmt.Errorf("%w: write blob %s: %v", common.ErrStorage, name, err)
	}
	return nil
}

func (s *FSBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: open blob %s: %v", common.ErrStorage, name, err)
	}
	return f, nil
}
