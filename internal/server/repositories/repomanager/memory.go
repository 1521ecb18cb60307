package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/infosec/internal/dbx"
	"github.com/dmitrijs2005/infosec/internal/server/repositories/identities"
)

// MemoryRepositoryManager serves one shared in-memory store regardless of
// the connection it is asked to bind to. Pair it with dbx.NopTransactor.
type MemoryRepositoryManager struct {
	identities *identities.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{identities: identities.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Identities(dbx.DBTX) identities.Repository {
	return m.identities
}

// Store exposes the concrete repository, e.g. for seeding.
func (m *MemoryRepositoryManager) Store() *identities.MemoryRepository {
	return m.identities
}
