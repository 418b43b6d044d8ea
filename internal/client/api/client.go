// Package api implements the HTTP client for the taskflow server. It speaks
// the REST binding and keeps the session token between calls, sending it as
// the "token" cookie the way a browser would.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

const tokenCookieName = "token"

// Credentials is the register/login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MeInfo is the authenticated identity as reported by the server.
type MeInfo struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// FileUpload is an attachment to submit with a create or update call.
type FileUpload struct {
	OriginalName string
	Data         []byte
}

// TaskCreate describes a new task.
type TaskCreate struct {
	Title   string
	Status  *string
	DueDate *string
	File    *FileUpload
}

// TaskUpdate describes a partial update. Nil fields are omitted from the
// request body entirely; ClearDueDate sends an explicit null.
type TaskUpdate struct {
	Title        *string
	Status       *string
	DueDate      *string
	ClearDueDate bool
	File         *FileUpload
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is a stateful API client bound to one server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns the current session token, empty when logged out.
func (c *Client) Token() string {
	return c.token
}

func filePayload(f *FileUpload) map[string]string {
	return map[string]string{
		"originalname": f.OriginalName,
		"data":         base64.StdEncoding.EncodeToString(f.Data),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: c.token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorFromResponse maps an HTTP rejection back onto the shared sentinels so
// callers can use errors.Is regardless of transport.
func errorFromResponse(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	message := body.Error
	if message == "" {
		message = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = common.ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = common.ErrUnauthorized
	case http.StatusNotFound:
		sentinel = common.ErrNotFound
	case http.StatusConflict:
		sentinel = common.ErrAlreadyExists
	default:
		return fmt.Errorf("server error: %s", message)
	}

	return fmt.Errorf("%w: %s", sentinel, message)
}

// Register creates an account and stores the returned session token.
func (c *Client) Register(ctx context.Context, email, password string) error {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/register", Credentials{Email: email, Password: password}, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Login authenticates and stores the returned session token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", Credentials{Email: email, Password: password}, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Logout drops the local session token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.token = ""
	return err
}

// Me returns the identity bound to the session.
func (c *Client) Me(ctx context.Context) (*MeInfo, error) {
	var out MeInfo
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks returns the full task collection.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, task TaskCreate) (*models.Task, error) {
	body := map[string]any{"title": task.Title}
	if task.Status != nil {
		body["status"] = *task.Status
	}
	if task.DueDate != nil {
		body["dueDate"] = *task.DueDate
	}
	if task.File != nil {
		body["file"] = filePayload(task.File)
	}

	var out models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskUpdate) (*models.Task, error) {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	if patch.ClearDueDate {
		body["dueDate"] = nil
	} else if patch.DueDate != nil {
		body["dueDate"] = *patch.DueDate
	}
	if patch.File != nil {
		body["file"] = filePayload(patch.File)
	}

	var out models.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

// DownloadAttachment fetches one attachment blob.
func (c *Client) DownloadAttachment(ctx context.Context, taskID, filename string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tasks/"+taskID+"/files/"+filename, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: c.token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errorFromResponse(resp)
	}

	return io.ReadAll(resp.Body)
}
