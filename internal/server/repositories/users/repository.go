package users

import (
	"context"

	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// Repository owns the user collection. Implementations serialize
// read-modify-persist sequences internally, so Create is atomic with respect
// to the uniqueness check.
type Repository interface {
	// Create appends a new user. Fails with common.ErrAlreadyExists when the
	// email is already present (case-sensitive exact match).
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks a user up by exact email match. Fails with
	// common.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
