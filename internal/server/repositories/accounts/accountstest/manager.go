package accountstest

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophaccount/internal/dbx"
	"github.com/dmitrijs2005/gophaccount/internal/server/repositories/accounts"
)

// Manager is a repomanager.RepositoryManager that hands out one Repository
// regardless of the DBTX, so transactional code paths see the same data.
type Manager struct {
	Repo *Repository
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *Manager) Accounts(dbx.DBTX) accounts.Repository        { return m.Repo }
