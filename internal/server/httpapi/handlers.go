package httpapi

import (
	"fmt"
	"io"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/logging"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/StepanDemidovets/taskflow/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// Handlers implements the REST binding over the user and task services.
type Handlers struct {
	users         *services.UserService
	tasks         *services.TaskService
	tokenValidity time.Duration
	logger        logging.Logger
}

func NewHandlers(users *services.UserService, tasks *services.TaskService, tokenValidity time.Duration, logger logging.Logger) *Handlers {
	return &Handlers{
		users:         users,
		tasks:         tasks,
		tokenValidity: tokenValidity,
		logger:        logger.With("module", "httpapi"),
	}
}

func (h *Handlers) setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.tokenValidity),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Register creates an account and starts a session in one step.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
	}

	_, token, err := h.users.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, token)
	return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: token})
}

// Login verifies credentials and starts a session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
	}

	token, err := h.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	h.setTokenCookie(c, token)
	return c.JSON(TokenResponse{Token: token})
}

// Logout clears the session cookie. Tokens stay valid until expiry; there is
// no server-side revocation list.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the identity bound to the current session.
func (h *Handlers) Me(c *fiber.Ctx) error {
	claims := claimsFromCtx(c)
	if claims == nil {
		return respondError(c, common.ErrUnauthorized)
	}
	return c.JSON(MeResponse{UserID: claims.UserID, Email: claims.Email})
}

// ListTasks returns the full task collection.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

// CreateTask adds a task, optionally with one inline attachment.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req TaskCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
	}

	upload, err := decodeOptionalFile(req.File)
	if err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.Create(c.UserContext(), req.Title, req.Status, req.DueDate, upload)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// UpdateTask applies a partial update, optionally appending one attachment.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var req TaskUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
	}

	patch, err := req.Patch()
	if err != nil {
		return respondError(c, err)
	}

	upload, err := decodeOptionalFile(req.File)
	if err != nil {
		return respondError(c, err)
	}

	task, err := h.tasks.Update(c.UserContext(), c.Params("id"), patch, upload)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(task)
}

// DeleteTask removes a task.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.tasks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadAttachment streams an attachment blob. The download name is the
// original client-supplied filename recorded on the task.
func (h *Handlers) DownloadAttachment(c *fiber.Ctx) error {
	task, err := h.tasks.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	filename := c.Params("filename")
	downloadName := ""
	for _, a := range task.Attachments {
		if a.Filename == filename {
			downloadName = a.OriginalName
			break
		}
	}
	if downloadName == "" {
		return respondError(c, fmt.Errorf("%w: attachment %s", common.ErrNotFound, filename))
	}

	blob, err := h.tasks.OpenAttachment(c.UserContext(), filename)
	if err != nil {
		return respondError(c, err)
	}
	defer blob.Close()

	data, err := io.ReadAll(blob)
	if err != nil {
		return respondError(c, fmt.Errorf("%w: read blob: %v", common.ErrStorage, err))
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", downloadName))
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

func decodeOptionalFile(p *FilePayload) (*models.FileUpload, error) {
	if p == nil || p.Data == "" {
		return nil, nil
	}
	return p.Decode()
}
