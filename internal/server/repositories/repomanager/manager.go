package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or a
// transaction, so services can compose several of them under dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Files(db dbx.DBTX) files.Repository
	Jobs(db dbx.DBTX) jobs.Repository
}
