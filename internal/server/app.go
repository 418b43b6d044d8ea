// Package server initializes and runs the task tracker server. It selects
// the record and blob storage backends, wires the services, the change
// broadcaster and the HTTP/WebSocket endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/logging"
	"github.com/StepanDemidovets/taskflow/internal/server/broadcast"
	"github.com/StepanDemidovets/taskflow/internal/server/config"
	"github.com/StepanDemidovets/taskflow/internal/server/httpapi"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/repomanager"
	"github.com/StepanDemidovets/taskflow/internal/server/services"
	"github.com/StepanDemidovets/taskflow/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
	taskService *services.TaskService
	hub         *broadcast.Hub
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	repos, err := newRepositoryManager(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	hub := broadcast.NewHub(repos.Tasks().List, logger)

	us := services.NewUserService(repos.Users(), cfg.SecretKey, cfg.TokenValidityDuration)
	ts := services.NewTaskService(repos.Tasks(), blobs, hub)

	return &App{
		config:      cfg,
		logger:      logger,
		repos:       repos,
		userService: us,
		taskService: ts,
		hub:         hub,
	}, nil
}

func newRepositoryManager(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.StoreFile:
		return repomanager.NewFileRepositoryManager(cfg.DataDir)
	case config.StorePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobFS:
		return storage.NewFSBlobStore(cfg.UploadsDir)
	case config.BlobS3:
		return storage.NewS3BlobStore(ctx, storage.S3Config{
			User:         cfg.S3RootUser,
			Password:     cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.BlobBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(
		app.config.EndpointAddrHTTP,
		app.config.SecretKey,
		app.config.TokenValidityDuration,
		app.userService,
		app.taskService,
		app.hub,
		app.logger,
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "server shutdown error", "error", err.Error())
		}
	}()

	if err := s.Listen(); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.hub.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err.Error())
	}
}
