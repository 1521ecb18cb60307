// Package repomanager vends repositories bound to a connection or
// transaction and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/infosec/internal/dbx"
	"github.com/dmitrijs2005/infosec/internal/server/repositories/identities"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Identities(db dbx.DBTX) identities.Repository
}
