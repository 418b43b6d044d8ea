// Package repomanager selects and wires the record-storage backend. The
// file-backed manager mirrors the original full-collection JSON files; the
// Postgres manager is the per-record upgrade behind the same interfaces.
package repomanager

import (
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/tasks"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Tasks() tasks.Repository
	Close() error
}
