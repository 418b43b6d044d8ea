package tasks

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPGRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func taskRows(tasks ...models.Task) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "status", "due_date", "attachments"})
	for _, task := range tasks {
		rows.AddRow(task.ID, task.Title, string(task.Status), task.DueDate, []byte(`[]`))
	}
	return rows
}

func TestPostgresList(t *testing.T) {
	repo, mock, db := newPGRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*title,\s*status,\s*due_date,\s*attachments\s+FROM\s+tasks\s+ORDER\s+BY\s+seq`).
		WillReturnRows(taskRows(
			models.Task{ID: "t-1", Title: "first", Status: models.StatusPending},
			models.Task{ID: "t-2", Title: "second", Status: models.StatusDone},
		))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t-1", got[0].ID)
	assert.Equal(t, []models.Attachment{}, got[0].Attachments)
}

func TestPostgresGet_NotFound(t *testing.T) {
	repo, mock, db := newPGRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*title,\s*status,\s*due_date,\s*attachments\s+FROM\s+tasks\s+WHERE`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresCreate(t *testing.T) {
	repo, mock, db := newPGRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+tasks`).
		WithArgs("t-1", "buy milk", "pending", nil, []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task := &models.Task{ID: "t-1", Title: "buy milk", Status: models.StatusPending, Attachments: []models.Attachment{}}
	_, err := repo.Create(context.Background(), task)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_MutatesInsideTx(t *testing.T) {
	repo, mock, db := newPGRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT\s+id,\s*title,\s*status,\s*due_date,\s*attachments\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs("t-1").
		WillReturnRows(taskRows(models.Task{ID: "t-1", Title: "old", Status: models.StatusPending}))
	mock.ExpectExec(`UPDATE\s+tasks\s+SET`).
		WithArgs("t-1", "new", "done", nil, []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Update(context.Background(), "t-1", func(task *models.Task) error {
		task.Title = "new"
		task.Status = models.StatusDone
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_NotFound(t *testing.T) {
	repo, mock, db := newPGRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+tasks`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
