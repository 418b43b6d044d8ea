package httpapi

import (
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/StepanDemidovets/taskflow/internal/server/broadcast"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// snapshotSink writes each push as a bare JSON array of tasks. This is the
// /updates wire format: no envelope, one snapshot per message.
type snapshotSink struct {
	w *connWriter
}

func (s *snapshotSink) Send(tasks []models.Task) error {
	return s.w.WriteJSON(tasks)
}

func (s *snapshotSink) Close() error {
	return s.w.Close()
}

// PushHandler implements the /updates endpoint: a read-only channel that
// receives the current snapshot on connect and again after every mutation.
// Identity is optional; anonymous subscribers are allowed.
type PushHandler struct {
	hub *broadcast.Hub
}

func NewPushHandler(hub *broadcast.Hub) *PushHandler {
	return &PushHandler{hub: hub}
}

// Handle runs one /updates connection until the client disconnects.
func (h *PushHandler) Handle(c *websocket.Conn) {
	client := &broadcast.Client{
		ID:   uuid.New().String(),
		Sink: &snapshotSink{w: &connWriter{conn: c}},
	}
	if claims, ok := c.Locals(userContextKey).(*auth.Claims); ok && claims != nil {
		client.UserID = claims.UserID
	}

	h.hub.Register(client)
	defer func() {
		h.hub.Unregister(client)
		c.Close()
	}()

	// Clients never send application frames here; the loop only notices
	// disconnects and discards anything else.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
