package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/logging"
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/StepanDemidovets/taskflow/internal/server/broadcast"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/StepanDemidovets/taskflow/internal/server/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// WebSocket RPC operation names.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpLogout      = "logout"
	OpMe          = "me"
	OpTasksList   = "tasks:list"
	OpTasksCreate = "tasks:create"
	OpTasksUpdate = "tasks:update"
	OpTasksDelete = "tasks:delete"

	// OpTasksChanged is the server-initiated push carrying the full snapshot.
	OpTasksChanged = "tasks:changed"
)

// RPCRequest is one client frame on the /ws endpoint. Seq is echoed back on
// the matching response so the client can correlate them.
type RPCRequest struct {
	Op      string          `json:"op"`
	Seq     int64           `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// RPCResponse answers exactly one RPCRequest.
type RPCResponse struct {
	Seq    int64  `json:"seq"`
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TaskPush is the unsolicited snapshot frame sent after every mutation.
type TaskPush struct {
	Op   string        `json:"op"`
	Data []models.Task `json:"data"`
}

// TaskIDPayload addresses a single task in update and delete frames.
type TaskIDPayload struct {
	ID string `json:"id"`
}

// wsUpdatePayload is the tasks:update payload: the target id plus the same
// partial-update fields the REST binding accepts.
type wsUpdatePayload struct {
	TaskIDPayload
	TaskUpdateRequest
}

// connWriter serializes writes to one WebSocket connection. The hub pushes
// from its own goroutine while RPC replies come from the read loop, so every
// write has to go through the same mutex.
type connWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *connWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *connWriter) Close() error {
	return w.conn.Close()
}

// rpcSink adapts a connWriter into a broadcast sink emitting tasks:changed
// frames.
type rpcSink struct {
	w *connWriter
}

func (s *rpcSink) Send(tasks []models.Task) error {
	return s.w.WriteJSON(TaskPush{Op: OpTasksChanged, Data: tasks})
}

func (s *rpcSink) Close() error {
	return s.w.Close()
}

// RPCHandler implements the request/response WebSocket binding at /ws. Every
// connection also receives snapshot pushes, so a client needs no separate
// subscription to stay current.
type RPCHandler struct {
	users         *services.UserService
	tasks         *services.TaskService
	hub           *broadcast.Hub
	secretKey     []byte
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewRPCHandler(users *services.UserService, tasks *services.TaskService, hub *broadcast.Hub, secretKey string, tokenValidity time.Duration, logger logging.Logger) *RPCHandler {
	return &RPCHandler{
		users:         users,
		tasks:         tasks,
		hub:           hub,
		secretKey:     []byte(secretKey),
		tokenValidity: tokenValidity,
		logger:        logger.With("module", "ws"),
	}
}

// Handle runs one /ws connection until the client disconnects.
func (h *RPCHandler) Handle(c *websocket.Conn) {
	ctx := context.Background()
	writer := &connWriter{conn: c}

	// Identity carried by the connection. Seeded from the handshake token,
	// replaced by in-session register/login, dropped by logout.
	claims, _ := c.Locals(userContextKey).(*auth.Claims)

	client := &broadcast.Client{
		ID:   uuid.New().String(),
		Sink: &rpcSink{w: writer},
	}
	if claims != nil {
		client.UserID = claims.UserID
	}

	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		c.Close()
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn(ctx, "read failed", "client", client.ID, "error", err.Error())
			}
			return
		}

		var req RPCRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			h.writeError(writer, 0, fmt.Errorf("%w: malformed frame", common.ErrInvalidInput))
			continue
		}

		data, err := h.dispatch(ctx, req, &claims)
		if err != nil {
			h.writeError(writer, req.Seq, err)
			continue
		}

		if err := writer.WriteJSON(RPCResponse{Seq: req.Seq, Status: "ok", Data: data}); err != nil {
			h.logger.Warn(ctx, "write failed", "client", client.ID, "error", err.Error())
			return
		}
	}
}

func (h *RPCHandler) writeError(w *connWriter, seq int64, err error) {
	status := statusFromError(err)
	_ = w.WriteJSON(RPCResponse{Seq: seq, Status: "error", Error: publicMessage(err, status)})
}

// dispatch routes one frame. The claims pointer is connection state: auth
// operations rebind it, gated operations require it.
func (h *RPCHandler) dispatch(ctx context.Context, req RPCRequest, claims **auth.Claims) (any, error) {
	switch req.Op {
	case OpRegister:
		return h.handleRegister(ctx, req.Payload, claims)
	case OpLogin:
		return h.handleLogin(ctx, req.Payload, claims)
	case OpLogout:
		*claims = nil
		return ackOK, nil
	case OpMe:
		if *claims == nil {
			return nil, common.ErrUnauthorized
		}
		return MeResponse{UserID: (*claims).UserID, Email: (*claims).Email}, nil
	case OpTasksList:
		if *claims == nil {
			return nil, common.ErrUnauthorized
		}
		return h.tasks.List(ctx)
	case OpTasksCreate:
		if *claims == nil {
			return nil, common.ErrUnauthorized
		}
		return h.handleCreate(ctx, req.Payload)
	case OpTasksUpdate:
		if *claims == nil {
			return nil, common.ErrUnauthorized
		}
		return h.handleUpdate(ctx, req.Payload)
	case OpTasksDelete:
		if *claims == nil {
			return nil, common.ErrUnauthorized
		}
		return h.handleDelete(ctx, req.Payload)
	default:
		return nil, fmt.Errorf("%w: unknown op %q", common.ErrInvalidInput, req.Op)
	}
}

var ackOK = map[string]bool{"ok": true}

func (h *RPCHandler) handleRegister(ctx context.Context, payload json.RawMessage, claims **auth.Claims) (any, error) {
	var req CredentialsRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", common.ErrInvalidInput)
	}

	user, token, err := h.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	*claims = &auth.Claims{UserID: user.ID, Email: user.Email}
	return TokenResponse{Token: token}, nil
}

func (h *RPCHandler) handleLogin(ctx context.Context, payload json.RawMessage, claims **auth.Claims) (any, error) {
	var req CredentialsRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", common.ErrInvalidInput)
	}

	token, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	parsed, err := auth.ParseToken(token, h.secretKey)
	if err != nil {
		return nil, err
	}

	*claims = parsed
	return TokenResponse{Token: token}, nil
}

func (h *RPCHandler) handleCreate(ctx context.Context, payload json.RawMessage) (any, error) {
	var req TaskCreateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", common.ErrInvalidInput)
	}

	upload, err := decodeOptionalFile(req.File)
	if err != nil {
		return nil, err
	}

	return h.tasks.Create(ctx, req.Title, req.Status, req.DueDate, upload)
}

func (h *RPCHandler) handleUpdate(ctx context.Context, payload json.RawMessage) (any, error) {
	var req wsUpdatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", common.ErrInvalidInput)
	}

	patch, err := req.Patch()
	if err != nil {
		return nil, err
	}

	upload, err := decodeOptionalFile(req.File)
	if err != nil {
		return nil, err
	}

	return h.tasks.Update(ctx, req.ID, patch, upload)
}

func (h *RPCHandler) handleDelete(ctx context.Context, payload json.RawMessage) (any, error) {
	var req TaskIDPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: invalid payload", common.ErrInvalidInput)
	}

	if err := h.tasks.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	return ackOK, nil
}
