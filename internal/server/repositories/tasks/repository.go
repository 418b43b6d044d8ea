package tasks

import (
	"context"

	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// Repository owns the authoritative task collection. Implementations
// serialize read-modify-persist sequences internally (single writer per
// store) and never trust state cached across calls: every operation observes
// the durable collection as it currently is.
type Repository interface {
	// List returns the full snapshot in insertion order.
	List(ctx context.Context) ([]models.Task, error)

	// Get returns the task with the given id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Task, error)

	// Create appends task to the collection.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)

	// Update applies mutate to the stored task under the store's write lock
	// and persists the result. Fails with common.ErrNotFound when the id is
	// absent; an error from mutate aborts without persisting.
	Update(ctx context.Context, id string, mutate func(*models.Task) error) (*models.Task, error)

	// Delete removes the task record, or fails with common.ErrNotFound.
	Delete(ctx context.Context, id string) error
}
