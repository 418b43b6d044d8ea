package cli

import (
	"fmt"
	"io"

	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// FormatTasks renders the task collection in a compact list form.
func FormatTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	for i, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = *t.DueDate
		}
		fmt.Fprintf(w, "%d. [%s] %s (due: %s, id: %s)\n", i+1, t.Status, t.Title, due, t.ID)
		for _, att := range t.Attachments {
			fmt.Fprintf(w, "   attachment: %s (%s)\n", att.OriginalName, att.Filename)
		}
	}
}
