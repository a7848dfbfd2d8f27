package repomanager

import (
	"context"
	"database/sql"

	"github.com/D-Abramoc/chatrelay/internal/dbx"
	"github.com/D-Abramoc/chatrelay/internal/server/repositories/messages"
	"github.com/D-Abramoc/chatrelay/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}
