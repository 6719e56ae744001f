// Package accounts persists account records in PostgreSQL.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/server/models"
)

// Projection selects which columns a read returns.
type Projection int

const (
	// ProjectionPublic never reads the password hash.
	ProjectionPublic Projection = iota
	// ProjectionCredentials includes the password hash. Only the login and
	// password-change flows use it.
	ProjectionCredentials
)

// Repository is the account persistence collaborator. Implementations are
// bound to a dbx.DBTX, so the same code runs inside or outside a transaction.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	FindByID(ctx context.Context, id int64, projection Projection) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	RecordLogin(ctx context.Context, id int64, at time.Time, loginCount int) error
	Delete(ctx context.Context, id int64) error
}
