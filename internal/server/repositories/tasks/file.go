package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/filex"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// FileRepository keeps the whole task collection in a single JSON file,
// rewritten atomically on every mutation. The mutex is the per-store
// single-writer queue: read-modify-persist sequences never interleave.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) load() ([]models.Task, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorage, r.path, err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrStorage, r.path, err)
	}
	return tasks, nil
}

func (r *FileRepository) save(tasks []models.Task) error {
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode tasks: %v", common.ErrStorage, err)
	}
	if err := filex.WriteFileAtomic(r.path, b, 0o660); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrStorage, r.path, err)
	}
	return nil
}

func (r *FileRepository) List(ctx context.Context) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

func (r *FileRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].ID == id {
			t := tasks[i]
			return &t, nil
		}
	}

	return nil, common.ErrNotFound
}

func (r *FileRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load()
	if err != nil {
		return nil, err
	}

	tasks = append(tasks, *task)
	if err := r.save(tasks); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *FileRepository) Update(ctx context.Context, id string, mutate func(*models.Task) error) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		if err := mutate(&tasks[i]); err != nil {
			return nil, err
		}
		if err := r.save(tasks); err != nil {
			return nil, err
		}
		t := tasks[i]
		return &t, nil
	}

	return nil, common.ErrNotFound
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks, err := r.load()
	if err != nil {
		return err
	}

	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks = append(tasks[:i], tasks[i+1:]...)
		return r.save(tasks)
	}

	return common.ErrNotFound
}
