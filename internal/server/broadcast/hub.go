// Package broadcast implements the change broadcaster: after every task
// mutation the hub re-reads the authoritative snapshot and pushes it to all
// connected push channels. Delivery is best-effort; a slow or dead client
// only misses pushes and resynchronizes on its next list call.
package broadcast

import (
	"context"
	"sync"

	"github.com/StepanDemidovets/taskflow/internal/logging"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// Sink is one live push channel. Transports wrap their connection type
// (WebSocket, test fake) behind it and choose the wire encoding.
type Sink interface {
	Send(tasks []models.Task) error
	Close() error
}

// Client is a registered push-channel subscriber. UserID is the identity
// resolved at handshake time, empty when the client connected anonymously.
type Client struct {
	ID     string
	UserID string
	Sink   Sink
}

// Snapshot returns the current authoritative task collection. The hub calls
// it on every notification instead of trusting any cached state.
type Snapshot func(ctx context.Context) ([]models.Task, error)

// Hub fans the task snapshot out to all registered clients.
type Hub struct {
	snapshot   Snapshot
	logger     logging.Logger
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	notify     chan struct{}
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub(snapshot Snapshot, logger logging.Logger) *Hub {
	return &Hub{
		snapshot:   snapshot,
		logger:     logger.With("module", "broadcast"),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run drives the hub until ctx is cancelled, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info(ctx, "shutting down, closing push channels")
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(ctx, client)
		case client := <-h.unregister:
			h.handleUnregister(ctx, client)
		case <-h.notify:
			h.handleNotify(ctx)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client; the current snapshot is sent to it immediately so
// a subscriber that connects before any mutation still converges. After the
// hub has stopped, registration is a no-op.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client. Safe to call after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NotifyAll schedules a snapshot push to every client. It never blocks: a
// pending notification coalesces with the next one, which is safe because
// the snapshot is re-read at send time.
func (h *Hub) NotifyAll() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// ClientCount returns the number of connected push channels.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) handleRegister(ctx context.Context, client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.logger.Info(ctx, "push channel connected", "client", client.ID, "user", client.UserID)

	tasks, err := h.snapshot(ctx)
	if err != nil {
		h.logger.Error(ctx, "snapshot on connect failed", "error", err.Error())
		return
	}
	if err := client.Sink.Send(tasks); err != nil {
		h.logger.Warn(ctx, "initial push failed", "client", client.ID, "error", err.Error())
	}
}

func (h *Hub) handleUnregister(ctx context.Context, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		h.logger.Info(ctx, "push channel disconnected", "client", client.ID)
	}
}

func (h *Hub) handleNotify(ctx context.Context) {
	tasks, err := h.snapshot(ctx)
	if err != nil {
		h.logger.Error(ctx, "snapshot failed, skipping push", "error", err.Error())
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if err := client.Sink.Send(tasks); err != nil {
			// per-client failures never propagate to other clients
			h.logger.Warn(ctx, "push failed", "client", client.ID, "error", err.Error())
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Sink.Close()
	}
	h.clients = make(map[string]*Client)
}
