package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/logging"
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/StepanDemidovets/taskflow/internal/server/broadcast"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	taskrepo "github.com/StepanDemidovets/taskflow/internal/server/repositories/tasks"
	userrepo "github.com/StepanDemidovets/taskflow/internal/server/repositories/users"
	"github.com/StepanDemidovets/taskflow/internal/server/services"
	"github.com/StepanDemidovets/taskflow/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRPCHandler(t *testing.T) *RPCHandler {
	t.Helper()

	dir := t.TempDir()
	usersRepo := userrepo.NewFileRepository(filepath.Join(dir, "users.json"))
	tasksRepo := taskrepo.NewFileRepository(filepath.Join(dir, "tasks.json"))

	blobs, err := storage.NewFSBlobStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))

	hub := broadcast.NewHub(tasksRepo.List, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})

	userSvc := services.NewUserService(usersRepo, testSecret, time.Hour)
	taskSvc := services.NewTaskService(tasksRepo, blobs, hub)

	return NewRPCHandler(userSvc, taskSvc, hub, testSecret, time.Hour, logger)
}

func rawPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestRPCDispatch_AuthFlow(t *testing.T) {
	h := newTestRPCHandler(t)
	ctx := context.Background()

	var claims *auth.Claims

	t.Run("gated op before login", func(t *testing.T) {
		_, err := h.dispatch(ctx, RPCRequest{Op: OpTasksList, Seq: 1}, &claims)
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("register binds identity", func(t *testing.T) {
		data, err := h.dispatch(ctx, RPCRequest{
			Op:      OpRegister,
			Seq:     2,
			Payload: rawPayload(t, CredentialsRequest{Email: "a@example.com", Password: "pw"}),
		}, &claims)
		require.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, "a@example.com", claims.Email)
		assert.NotEmpty(t, data.(TokenResponse).Token)
	})

	t.Run("me reflects bound identity", func(t *testing.T) {
		data, err := h.dispatch(ctx, RPCRequest{Op: OpMe, Seq: 3}, &claims)
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", data.(MeResponse).Email)
	})

	t.Run("logout drops identity", func(t *testing.T) {
		_, err := h.dispatch(ctx, RPCRequest{Op: OpLogout, Seq: 4}, &claims)
		require.NoError(t, err)
		assert.Nil(t, claims)

		_, err = h.dispatch(ctx, RPCRequest{Op: OpMe, Seq: 5}, &claims)
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("login rebinds identity", func(t *testing.T) {
		data, err := h.dispatch(ctx, RPCRequest{
			Op:      OpLogin,
			Seq:     6,
			Payload: rawPayload(t, CredentialsRequest{Email: "a@example.com", Password: "pw"}),
		}, &claims)
		require.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, "a@example.com", claims.Email)
		assert.NotEmpty(t, data.(TokenResponse).Token)
	})

	t.Run("bad credentials leave identity unbound", func(t *testing.T) {
		var anon *auth.Claims
		_, err := h.dispatch(ctx, RPCRequest{
			Op:      OpLogin,
			Seq:     7,
			Payload: rawPayload(t, CredentialsRequest{Email: "a@example.com", Password: "wrong"}),
		}, &anon)
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
		assert.Nil(t, anon)
	})
}

func TestRPCDispatch_TaskOps(t *testing.T) {
	h := newTestRPCHandler(t)
	ctx := context.Background()

	var claims *auth.Claims
	_, err := h.dispatch(ctx, RPCRequest{
		Op:      OpRegister,
		Seq:     1,
		Payload: rawPayload(t, CredentialsRequest{Email: "a@example.com", Password: "pw"}),
	}, &claims)
	require.NoError(t, err)

	data, err := h.dispatch(ctx, RPCRequest{
		Op:      OpTasksCreate,
		Seq:     2,
		Payload: rawPayload(t, TaskCreateRequest{Title: "ship release"}),
	}, &claims)
	require.NoError(t, err)

	created := data.(*models.Task)
	assert.Equal(t, "ship release", created.Title)
	assert.Equal(t, models.StatusPending, created.Status)

	t.Run("list", func(t *testing.T) {
		data, err := h.dispatch(ctx, RPCRequest{Op: OpTasksList, Seq: 3}, &claims)
		require.NoError(t, err)
		require.Len(t, data.([]models.Task), 1)
	})

	t.Run("update", func(t *testing.T) {
		data, err := h.dispatch(ctx, RPCRequest{
			Op:      OpTasksUpdate,
			Seq:     4,
			Payload: rawPayload(t, map[string]any{"id": created.ID, "status": "done"}),
		}, &claims)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDone, data.(*models.Task).Status)
	})

	t.Run("update unknown id", func(t *testing.T) {
		_, err := h.dispatch(ctx, RPCRequest{
			Op:      OpTasksUpdate,
			Seq:     5,
			Payload: rawPayload(t, map[string]any{"id": "no-such-id", "title": "x"}),
		}, &claims)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := h.dispatch(ctx, RPCRequest{
			Op:      OpTasksDelete,
			Seq:     6,
			Payload: rawPayload(t, TaskIDPayload{ID: created.ID}),
		}, &claims)
		require.NoError(t, err)

		data, err := h.dispatch(ctx, RPCRequest{Op: OpTasksList, Seq: 7}, &claims)
		require.NoError(t, err)
		assert.Empty(t, data.([]models.Task))
	})

	t.Run("unknown op", func(t *testing.T) {
		_, err := h.dispatch(ctx, RPCRequest{Op: "tasks:purge", Seq: 8}, &claims)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestTaskUpdateRequestPatch(t *testing.T) {
	t.Run("omitted dueDate leaves it alone", func(t *testing.T) {
		var req TaskUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"title":"t"}`), &req))

		patch, err := req.Patch()
		require.NoError(t, err)
		assert.False(t, patch.DueDateSet)
	})

	t.Run("null dueDate clears it", func(t *testing.T) {
		var req TaskUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"dueDate":null}`), &req))

		patch, err := req.Patch()
		require.NoError(t, err)
		assert.True(t, patch.DueDateSet)
		assert.Nil(t, patch.DueDate)
	})

	t.Run("string dueDate sets it", func(t *testing.T) {
		var req TaskUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2026-10-01"}`), &req))

		patch, err := req.Patch()
		require.NoError(t, err)
		assert.True(t, patch.DueDateSet)
		require.NotNil(t, patch.DueDate)
		assert.Equal(t, "2026-10-01", *patch.DueDate)
	})

	t.Run("non-string dueDate rejected", func(t *testing.T) {
		var req TaskUpdateRequest
		require.NoError(t, json.Unmarshal([]byte(`{"dueDate":42}`), &req))

		_, err := req.Patch()
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}
