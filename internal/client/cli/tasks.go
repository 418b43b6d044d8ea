package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/StepanDemidovets/taskflow/internal/client/api"
)

// List prints the current task collection.
func (a *App) List(ctx context.Context) error {
	tasks, err := a.api.ListTasks(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	FormatTasks(os.Stdout, tasks)
	return nil
}

// readUploadPrompt optionally reads a local file path and loads it as an
// attachment upload.
func (a *App) readUploadPrompt() (*api.FileUpload, error) {
	path, err := getSimpleText(a.reader, "Attachment path (empty to skip)", os.Stdout)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	return &api.FileUpload{OriginalName: filepath.Base(path), Data: data}, nil
}

// Create interactively builds a new task and submits it.
func (a *App) Create(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}

	dueDate, err := GetOptionalText(a.reader, "Due date", os.Stdout)
	if err != nil {
		return err
	}

	file, err := a.readUploadPrompt()
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	task, err := a.api.CreateTask(ctx, api.TaskCreate{Title: title, DueDate: dueDate, File: file})
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	fmt.Println("Created task", task.ID)
	return nil
}

// Update interactively patches an existing task. Empty answers leave fields
// untouched; typing "none" for the due date clears it.
func (a *App) Update(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Task id", os.Stdout)
	if err != nil {
		return err
	}

	patch := api.TaskUpdate{}

	if title, err := GetOptionalText(a.reader, "New title", os.Stdout); err != nil {
		return err
	} else {
		patch.Title = title
	}

	if status, err := GetOptionalText(a.reader, "New status (pending|done)", os.Stdout); err != nil {
		return err
	} else {
		patch.Status = status
	}

	due, err := GetOptionalText(a.reader, "New due date, or \"none\" to clear", os.Stdout)
	if err != nil {
		return err
	}
	if due != nil {
		if *due == "none" {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}

	file, err := a.readUploadPrompt()
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}
	patch.File = file

	task, err := a.api.UpdateTask(ctx, id, patch)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	fmt.Println("Updated task", task.ID)
	return nil
}

// Delete removes a task by id.
func (a *App) Delete(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Task id", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.DeleteTask(ctx, id); err != nil {
		fmt.Println("Error:", err)
		return err
	}

	fmt.Println("Deleted task", id)
	return nil
}

// Download saves an attachment to the current directory under its storage
// name.
func (a *App) Download(ctx context.Context) error {
	id, err := getSimpleText(a.reader, "Task id", os.Stdout)
	if err != nil {
		return err
	}

	filename, err := getSimpleText(a.reader, "Attachment storage name", os.Stdout)
	if err != nil {
		return err
	}

	data, err := a.api.DownloadAttachment(ctx, id, filename)
	if err != nil {
		fmt.Println("Error:", err)
		return err
	}

	target := filepath.Base(filename)
	if err := os.WriteFile(target, data, 0o600); err != nil {
		fmt.Println("Error:", err)
		return err
	}

	fmt.Println("Saved", target)
	return nil
}
