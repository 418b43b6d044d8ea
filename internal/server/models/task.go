// Package models holds the persisted record types shared by repositories,
// services and transports.
package models

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

// Attachment references a stored blob. Filename is the server-generated
// storage name, unique across all tasks; OriginalName is the client-supplied
// display name, preserved verbatim.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
}

// Task is a tracked work item. DueDate is nil when unset; Attachments only
// ever grow while the task exists.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Status      Status       `json:"status"`
	DueDate     *string      `json:"dueDate"`
	Attachments []Attachment `json:"attachments"`
}

// TaskPatch carries a partial update. Nil pointer fields are left untouched.
// DueDate is special: DueDateSet distinguishes "clear the due date" (set,
// nil value) from "leave it alone" (not set).
type TaskPatch struct {
	Title      *string
	Status     *Status
	DueDate    *string
	DueDateSet bool
}

// FileUpload is a decoded attachment payload submitted with a create or
// update call.
type FileUpload struct {
	OriginalName string
	Data         []byte
}
