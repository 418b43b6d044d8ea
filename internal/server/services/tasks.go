package services

import (
	"context"
	"fmt"
	"io"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/tasks"
	"github.com/StepanDemidovets/taskflow/internal/server/storage"
	"github.com/google/uuid"
)

// Broadcaster receives a notification after every successful task mutation,
// strictly after the mutation is durably persisted.
type Broadcaster interface {
	NotifyAll()
}

// TaskService owns the task collection operations. Ordering contracts:
// attachment blobs are written before any reference to them is persisted,
// and the broadcaster fires only after persistence completes.
type TaskService struct {
	tasks    tasks.Repository
	blobs    storage.BlobStore
	notifier Broadcaster
}

func NewTaskService(repo tasks.Repository, blobs storage.BlobStore, notifier Broadcaster) *TaskService {
	return &TaskService{
		tasks:    repo,
		blobs:    blobs,
		notifier: notifier,
	}
}

// List returns the full authoritative snapshot.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	return s.tasks.List(ctx)
}

// Get returns one task by id, or common.ErrNotFound.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.Get(ctx, id)
}

// saveBlob writes the upload content and returns the attachment record that
// may reference it. The blob exists before the returned record is used.
func (s *TaskService) saveBlob(ctx context.Context, file *models.FileUpload) (*models.Attachment, error) {
	name := storage.NewStorageName(file.OriginalName)
	if err := s.blobs.Save(ctx, name, file.Data); err != nil {
		return nil, err
	}

	original := file.OriginalName
	if original == "" {
		original = name
	}
	return &models.Attachment{Filename: name, OriginalName: original}, nil
}

// Create adds a task. Status defaults to pending; a nil dueDate means unset.
func (s *TaskService) Create(ctx context.Context, title string, status *models.Status, dueDate *string, file *models.FileUpload) (*models.Task, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title required", common.ErrInvalidInput)
	}

	st := models.StatusPending
	if status != nil {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, *status)
		}
		st = *status
	}

	task := &models.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Status:      st,
		DueDate:     dueDate,
		Attachments: []models.Attachment{},
	}

	if file != nil && len(file.Data) > 0 {
		attachment, err := s.saveBlob(ctx, file)
		if err != nil {
			return nil, err
		}
		task.Attachments = append(task.Attachments, *attachment)
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAll()
	return created, nil
}

// Update applies a partial update and optionally appends one attachment.
// Only supplied patch fields change; patch.DueDateSet with a nil value
// clears the due date. Fails with common.ErrNotFound for an unknown id.
func (s *TaskService) Update(ctx context.Context, id string, patch models.TaskPatch, file *models.FileUpload) (*models.Task, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, *patch.Status)
	}

	var attachment *models.Attachment
	if file != nil && len(file.Data) > 0 {
		var err error
		attachment, err = s.saveBlob(ctx, file)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.tasks.Update(ctx, id, func(task *models.Task) error {
		if patch.Title != nil {
			task.Title = *patch.Title
		}
		if patch.Status != nil {
			task.Status = *patch.Status
		}
		if patch.DueDateSet {
			task.DueDate = patch.DueDate
		}
		if attachment != nil {
			task.Attachments = append(task.Attachments, *attachment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAll()
	return updated, nil
}

// Delete removes the task record. Attachment blobs are left behind; see the
// open questions in DESIGN.md.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}

	s.notifier.NotifyAll()
	return nil
}

// OpenAttachment streams a stored blob by its storage name, or fails with
// common.ErrNotFound.
func (s *TaskService) OpenAttachment(ctx context.Context, filename string) (io.ReadCloser, error) {
	return s.blobs.Open(ctx, filename)
}
