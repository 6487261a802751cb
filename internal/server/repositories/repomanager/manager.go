package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/weekplanner/internal/dbx"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/records"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/weekplanner/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can
// use the same repositories inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Records(db dbx.DBTX, table records.Table) records.Repository
}
