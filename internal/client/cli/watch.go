package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/StepanDemidovets/taskflow/internal/client/watch"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// Watch subscribes to the live snapshot channel and reprints the collection
// on every change. Pressing Enter stops watching and returns to the prompt.
func (a *App) Watch(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		// one line, any content, ends the watch
		_, _ = a.reader.ReadString('\n')
		cancel()
	}()

	fmt.Println("Watching for changes (press Enter to stop)...")

	w := watch.New(a.config.ServerBaseURL, a.api.Token())
	err := w.Run(watchCtx, func(tasks []models.Task) {
		fmt.Println("--- tasks ---")
		FormatTasks(os.Stdout, tasks)
	})
	if err != nil {
		fmt.Println("Watch ended:", err)
		return err
	}
	return nil
}
