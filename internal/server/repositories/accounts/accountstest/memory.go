// Package accountstest provides an in-memory accounts.Repository for tests
// of the layers above persistence.
package accountstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/dmitrijs2005/gophaccount/internal/server/repositories/accounts"
)

// Repository keeps accounts in a map and enforces email uniqueness like the
// database constraint does. It is safe for concurrent use.
type Repository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.Account
	now    func() time.Time

	failWith       error
	lastProjection accounts.Projection
}

var _ accounts.Repository = (*Repository)(nil)

// New returns an empty Repository whose timestamps come from now.
func New(now func() time.Time) *Repository {
	if now == nil {
		now = time.Now
	}
	return &Repository{nextID: 1, rows: map[int64]models.Account{}, now: now}
}

// FailWith makes every subsequent call return err. nil restores normal
// behavior.
func (f *Repository) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

// LastProjection reports the projection of the latest FindByID call.
func (f *Repository) LastProjection() accounts.Projection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastProjection
}

// Get returns the stored row, hash included.
func (f *Repository) Get(id int64) (models.Account, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	return a, ok
}

// Put stores a verbatim, bypassing validation and uniqueness. A zero ID is
// assigned the next one.
func (f *Repository) Put(a models.Account) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		a.ID = f.nextID
	}
	if a.ID >= f.nextID {
		f.nextID = a.ID + 1
	}
	f.rows[a.ID] = a
	return a.ID
}

// Len returns the number of stored accounts.
func (f *Repository) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func project(a models.Account, p accounts.Projection) *models.Account {
	if p == accounts.ProjectionPublic {
		a.PasswordHash = ""
	}
	return &a
}

func (f *Repository) emailTaken(email string, except int64) bool {
	for id, a := range f.rows {
		if id != except && a.Email == email {
			return true
		}
	}
	return false
}

func (f *Repository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.emailTaken(a.Email, 0) {
		return nil, common.ErrorAlreadyExists
	}
	a.ID = f.nextID
	f.nextID++
	a.CreatedAt = f.now()
	a.UpdatedAt = a.CreatedAt
	f.rows[a.ID] = *a
	return a, nil
}

func (f *Repository) FindByID(ctx context.Context, id int64, p accounts.Projection) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastProjection = p
	if f.failWith != nil {
		return nil, f.failWith
	}
	a, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return project(a, p), nil
}

func (f *Repository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, a := range f.rows {
		if a.Email == email {
			return project(a, accounts.ProjectionCredentials), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *Repository) List(ctx context.Context) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]*models.Account, 0, len(f.rows))
	for _, a := range f.rows {
		out = append(out, project(a, accounts.ProjectionPublic))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Repository) Update(ctx context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	cur, ok := f.rows[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if f.emailTaken(a.Email, a.ID) {
		return common.ErrorAlreadyExists
	}
	cur.Email = a.Email
	cur.Role = a.Role
	cur.UpdatedAt = f.now()
	a.UpdatedAt = cur.UpdatedAt
	f.rows[a.ID] = cur
	return nil
}

func (f *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return f.mutate(id, func(a *models.Account) {
		a.PasswordHash = hash
		a.UpdatedAt = f.now()
	})
}

func (f *Repository) RecordLogin(ctx context.Context, id int64, at time.Time, count int) error {
	return f.mutate(id, func(a *models.Account) {
		a.LastLogin = &at
		a.LoginCount = count
	})
}

func (f *Repository) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *Repository) mutate(id int64, fn func(*models.Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	cur, ok := f.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&cur)
	f.rows[id] = cur
	return nil
}
