// Package cli implements the interactive taskflow client: a small REPL over
// the server's REST binding plus a live watch mode fed by the /updates push
// channel.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/StepanDemidovets/taskflow/internal/client/api"
	"github.com/StepanDemidovets/taskflow/internal/client/config"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
)

// apiClient is the server surface the commands need. The real api.Client
// satisfies it; tests provide a stub.
type apiClient interface {
	Token() string
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.MeInfo, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, task api.TaskCreate) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, patch api.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	DownloadAttachment(ctx context.Context, taskID, filename string) ([]byte, error)
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerBaseURL),
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) status() string {
	if a.isLoggedIn() {
		return "logged in"
	}
	return "logged out"
}
