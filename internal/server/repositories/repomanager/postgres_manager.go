package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/StepanDemidovets/taskflow/internal/server/migrations"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/tasks"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
	db    *sql.DB
	users *users.PostgresRepository
	tasks *tasks.PostgresRepository
}

func (m *PostgresRepositoryManager) Users() users.Repository { return m.users }
func (m *PostgresRepositoryManager) Tasks() tasks.Repository { return m.tasks }
func (m *PostgresRepositoryManager) Close() error            { return m.db.Close() }

func (m *PostgresRepositoryManager) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

// NewPostgresRepositoryManager opens the database, runs pending migrations
// and returns Postgres-backed repositories.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:    db,
		users: users.NewPostgresRepository(db),
		tasks: tasks.NewPostgresRepository(db),
	}

	if err := m.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
