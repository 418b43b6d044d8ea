package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/dbx"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// PostgresRepository stores tasks per-record instead of as one JSON file,
// behind the same snapshot-consistent interface. Insertion order is kept via
// a serial column; attachments live in a JSONB column since they are only
// ever read and written together with their task.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{}
	var attachments []byte
	if err := row.Scan(&task.ID, &task.Title, &task.Status, &task.DueDate, &attachments); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attachments, &task.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}
	return task, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Task, error) {
	query :=
		`SELECT id, title, status, due_date, attachments FROM tasks
		 ORDER BY seq
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tasks, nil
}

func (r *PostgresRepository) get(ctx context.Context, db dbx.DBTX, id string, forUpdate bool) (*models.Task, error) {
	query :=
		`SELECT id, title, status, due_date, attachments FROM tasks
		 WHERE id = $1
		 `
	if forUpdate {
		query += "FOR UPDATE"
	}

	task, err := scanTask(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	return r.get(ctx, r.db, id, false)
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query :=
		`INSERT INTO tasks (id, title, status, due_date, attachments)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	attachments, err := json.Marshal(task.Attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, task.ID, task.Title, task.Status, task.DueDate, attachments); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, mutate func(*models.Task) error) (*models.Task, error) {
	var updated *models.Task

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		task, err := r.get(ctx, tx, id, true)
		if err != nil {
			return err
		}

		if err := mutate(task); err != nil {
			return err
		}

		attachments, err := json.Marshal(task.Attachments)
		if err != nil {
			return fmt.Errorf("encode attachments: %w", err)
		}

		query :=
			`UPDATE tasks SET title = $2, status = $3, due_date = $4, attachments = $5
			 WHERE id = $1
			 `
		if _, err := tx.ExecContext(ctx, query, task.ID, task.Title, task.Status, task.DueDate, attachments); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tasks WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}
