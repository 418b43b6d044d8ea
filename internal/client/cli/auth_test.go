package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/StepanDemidovets/taskflow/internal/client/api"
	"github.com/StepanDemidovets/taskflow/internal/client/config"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	token string

	registered [][2]string
	loggedIn   [][2]string
	created    []api.TaskCreate
	deleted    []string

	loginErr error
}

func (f *fakeAPI) Token() string { return f.token }
func (f *fakeAPI) Register(ctx context.Context, email, password string) error {
	f.registered = append(f.registered, [2]string{email, password})
	f.token = "t"
	return nil
}
func (f *fakeAPI) Login(ctx context.Context, email, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn = append(f.loggedIn, [2]string{email, password})
	f.token = "t"
	return nil
}
func (f *fakeAPI) Logout(ctx context.Context) error {
	f.token = ""
	return nil
}
func (f *fakeAPI) Me(ctx context.Context) (*api.MeInfo, error) {
	return &api.MeInfo{UserID: "u1", Email: "a@example.com"}, nil
}
func (f *fakeAPI) ListTasks(ctx context.Context) ([]models.Task, error) {
	return []models.Task{}, nil
}
func (f *fakeAPI) CreateTask(ctx context.Context, task api.TaskCreate) (*models.Task, error) {
	f.created = append(f.created, task)
	return &models.Task{ID: "t1", Title: task.Title, Status: models.StatusPending}, nil
}
func (f *fakeAPI) UpdateTask(ctx context.Context, id string, patch api.TaskUpdate) (*models.Task, error) {
	return &models.Task{ID: id, Status: models.StatusPending}, nil
}
func (f *fakeAPI) DeleteTask(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeAPI) DownloadAttachment(ctx context.Context, taskID, filename string) ([]byte, error) {
	return []byte("data"), nil
}

func newTestApp(input string, client apiClient) *App {
	return &App{
		config: &config.Config{ServerBaseURL: "http://127.0.0.1:3000"},
		api:    client,
		reader: bufio.NewReader(strings.NewReader(input)),
	}
}

func stubInput(t *testing.T, password string) {
	t.Helper()
	origPassword := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(password), nil }
	t.Cleanup(func() { getPassword = origPassword })
}

func TestRegisterCommand(t *testing.T) {
	stubInput(t, "pw")

	client := &fakeAPI{}
	app := newTestApp("a@example.com\n", client)

	require.NoError(t, app.Register(context.Background()))

	require.Len(t, client.registered, 1)
	assert.Equal(t, [2]string{"a@example.com", "pw"}, client.registered[0])
	assert.True(t, app.isLoggedIn())
}

func TestLoginCommand(t *testing.T) {
	stubInput(t, "pw")

	t.Run("success", func(t *testing.T) {
		client := &fakeAPI{}
		app := newTestApp("a@example.com\n", client)

		require.NoError(t, app.Login(context.Background()))
		assert.True(t, app.isLoggedIn())
	})

	t.Run("failure surfaces error", func(t *testing.T) {
		client := &fakeAPI{loginErr: errors.New("nope")}
		app := newTestApp("a@example.com\n", client)

		assert.Error(t, app.Login(context.Background()))
		assert.False(t, app.isLoggedIn())
	})
}

func TestCreateCommand(t *testing.T) {
	client := &fakeAPI{token: "t"}
	// title, due date, no attachment
	app := newTestApp("buy milk\n2026-10-01\n\n", client)

	require.NoError(t, app.Create(context.Background()))

	require.Len(t, client.created, 1)
	assert.Equal(t, "buy milk", client.created[0].Title)
	require.NotNil(t, client.created[0].DueDate)
	assert.Equal(t, "2026-10-01", *client.created[0].DueDate)
	assert.Nil(t, client.created[0].File)
}

func TestDeleteCommand(t *testing.T) {
	client := &fakeAPI{token: "t"}
	app := newTestApp("task-123\n", client)

	require.NoError(t, app.Delete(context.Background()))
	assert.Equal(t, []string{"task-123"}, client.deleted)
}
