package users

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

// FileRepository keeps the whole user collection in a single JSON file.
// Every operation re-reads the file before acting and rewrites it atomically
// afterwards; a mutex serializes the read-modify-persist sequences so two
// writers never interleave on the durable file.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) load() ([]models.User, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.User{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorage, r.path, err)
	}

	var users []models.User
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrStorage, r.path, err)
	}
	return users, nil
}

func (r *FileRepository) save(users []models.User) error {
	b, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode users: %v", common.ErrStorage, err)
	}
	if err := filex.WriteFileAtomic(r.path, b, 0o660); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrStorage, r.path, err)
	}
	return nil
}

func (r *FileRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.Email == user.Email {
			return nil, common.ErrAlreadyExists
		}
	}

	users = append(users, *user)
	if err := r.save(users); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *FileRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Email == email {
			u := users[i]
			return &u, nil
		}
	}

	return nil, common.ErrNotFound
}
