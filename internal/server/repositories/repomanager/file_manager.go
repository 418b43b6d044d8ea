package repomanager

import (
	"fmt"
	"path/filepath"

	"github.com/StepanDemidovets/taskflow/internal/filex"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/tasks"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/users"
)

const (
	usersFileName = "users.json"
	tasksFileName = "tasks.json"
)

type FileRepositoryManager struct {
	users *users.FileRepository
	tasks *tasks.FileRepository
}

func (m *FileRepositoryManager) Users() users.Repository { return m.users }
func (m *FileRepositoryManager) Tasks() tasks.Repository { return m.tasks }
func (m *FileRepositoryManager) Close() error            { return nil }

// NewFileRepositoryManager bootstraps the data directory and returns
// file-backed repositories for both collections.
func NewFileRepositoryManager(dataDir string) (RepositoryManager, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	return &FileRepositoryManager{
		users: users.NewFileRepository(filepath.Join(dir, usersFileName)),
		tasks: tasks.NewFileRepository(filepath.Join(dir, tasksFileName)),
	}, nil
}
