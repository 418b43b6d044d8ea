// Package httpapi exposes the task tracker over HTTP and WebSocket: a REST
// binding under /api, a request/response WebSocket binding at /ws, and the
// read-only snapshot push channel at /updates. All three sit on the same
// services, so behavior is identical regardless of the binding used.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/logging"
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/StepanDemidovets/taskflow/internal/server/broadcast"
	"github.com/StepanDemidovets/taskflow/internal/server/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Server is the public HTTP/WebSocket endpoint.
type Server struct {
	app    *fiber.App
	addr   string
	logger logging.Logger
}

// NewServer wires the transport bindings over the given services and hub.
func NewServer(addr, secretKey string, tokenValidity time.Duration, users *services.UserService, tasks *services.TaskService, hub *broadcast.Hub, logger logging.Logger) *Server {
	s := &Server{
		addr:   addr,
		logger: logger.With("module", "httpapi"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "taskflow",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New())

	handlers := NewHandlers(users, tasks, tokenValidity, logger)
	rpc := NewRPCHandler(users, tasks, hub, secretKey, tokenValidity, logger)
	push := NewPushHandler(hub)
	secret := []byte(secretKey)

	api := s.app.Group("/api")
	api.Post("/register", handlers.Register)
	api.Post("/login", handlers.Login)
	api.Post("/logout", handlers.Logout)

	protected := api.Group("")
	protected.Use(AuthMiddleware(secret))
	protected.Get("/me", handlers.Me)
	protected.Get("/tasks", handlers.ListTasks)
	protected.Post("/tasks", handlers.CreateTask)
	protected.Put("/tasks/:id", handlers.UpdateTask)
	protected.Delete("/tasks/:id", handlers.DeleteTask)
	protected.Get("/tasks/:id/files/:filename", handlers.DownloadAttachment)

	s.app.Use("/ws", upgradeMiddleware(secret))
	s.app.Get("/ws", websocket.New(rpc.Handle))

	s.app.Use("/updates", upgradeMiddleware(secret))
	s.app.Get("/updates", websocket.New(push.Handle))

	return s
}

// upgradeMiddleware gates WebSocket routes on an actual upgrade request and
// resolves an optional session token (cookie, Bearer header or ?token=) into
// connection identity. An invalid token is ignored rather than rejected;
// gated operations still fail individually.
func upgradeMiddleware(secretKey []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := tokenFromRequest(c)
		if token == "" {
			token = c.Query("token")
		}
		if token != "" {
			if claims, err := auth.ParseToken(token, secretKey); err == nil {
				c.Locals(userContextKey, claims)
			}
		}

		return c.Next()
	}
}

// errorHandler turns fiber-level errors (bad routes, oversized bodies) into
// the uniform error body.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{Error: message})
}

// Listen serves until Shutdown is called or the listener fails.
func (s *Server) Listen() error {
	s.logger.Info(context.Background(), "listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown closes the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Test dispatches a request directly against the router without a network
// listener. Used by tests.
func (s *Server) Test(req *http.Request, msTimeout ...int) (*http.Response, error) {
	return s.app.Test(req, msTimeout...)
}
