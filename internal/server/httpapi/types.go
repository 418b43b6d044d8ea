package httpapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// CredentialsRequest carries the email/password pair for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse returns a freshly minted session token. The same token is
// also set as the "token" cookie on the response.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse describes the authenticated identity.
type MeResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FilePayload is an attachment submitted inline with a create or update
// request. Data is standard base64.
type FilePayload struct {
	OriginalName string `json:"originalname"`
	Data         string `json:"data"`
}

// Decode turns the wire payload into an upload, validating the base64.
func (p *FilePayload) Decode() (*models.FileUpload, error) {
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: file data is not valid base64", common.ErrInvalidInput)
	}
	return &models.FileUpload{OriginalName: p.OriginalName, Data: data}, nil
}

// TaskCreateRequest is the create-task body. Omitted status defaults to
// pending; omitted dueDate stays unset.
type TaskCreateRequest struct {
	Title   string         `json:"title"`
	Status  *models.Status `json:"status"`
	DueDate *string        `json:"dueDate"`
	File    *FilePayload   `json:"file"`
}

// TaskUpdateRequest is the partial-update body. DueDate is kept raw so an
// explicit null (clear the date) is distinguishable from an omitted field.
type TaskUpdateRequest struct {
	Title   *string         `json:"title"`
	Status  *models.Status  `json:"status"`
	DueDate json.RawMessage `json:"dueDate"`
	File    *FilePayload    `json:"file"`
}

var jsonNull = []byte("null")

// Patch converts the request into the service-level patch form.
func (r *TaskUpdateRequest) Patch() (models.TaskPatch, error) {
	patch := models.TaskPatch{
		Title:  r.Title,
		Status: r.Status,
	}

	if len(r.DueDate) > 0 {
		patch.DueDateSet = true
		if !bytes.Equal(bytes.TrimSpace(r.DueDate), jsonNull) {
			var due string
			if err := json.Unmarshal(r.DueDate, &due); err != nil {
				return models.TaskPatch{}, fmt.Errorf("%w: dueDate must be a string or null", common.ErrInvalidInput)
			}
			patch.DueDate = &due
		}
	}

	return patch, nil
}
