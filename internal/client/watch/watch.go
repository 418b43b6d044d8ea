// Package watch implements the client side of the /updates push channel.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/fasthttp/websocket"
)

const handshakeTimeout = 10 * time.Second

// Watcher subscribes to the server's snapshot pushes.
type Watcher struct {
	baseURL string
	token   string
}

// New builds a watcher for the given server. The token may be empty; the
// push channel accepts anonymous subscribers.
func New(baseURL, token string) *Watcher {
	return &Watcher{baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// endpoint rewrites the HTTP base URL into the ws:// form of /updates.
func (w *Watcher) endpoint() (string, error) {
	u, err := url.Parse(w.baseURL + "/updates")
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	return u.String(), nil
}

// Run connects and invokes handle for every received snapshot, starting with
// the one the server sends on connect. It returns when ctx is cancelled or
// the connection drops.
func (w *Watcher) Run(ctx context.Context, handle func([]models.Task)) error {
	endpoint, err := w.endpoint()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	header := http.Header{}
	if w.token != "" {
		header.Set("Cookie", "token="+w.token)
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var tasks []models.Task
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}

		handle(tasks)
	}
}
