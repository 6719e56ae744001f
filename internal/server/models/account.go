package models

import "time"

// Role is an account's access tag. The set is closed per release but meant
// to be extended by adding constants and listing them in KnownRoles.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// KnownRoles lists every role an account may hold.
func KnownRoles() []Role {
	return []Role{RoleAdmin, RoleCustomer}
}

// Valid reports whether r is one of KnownRoles.
func (r Role) Valid() bool {
	for _, known := range KnownRoles() {
		if r == known {
			return true
		}
	}
	return false
}

// Account is a stored user credential record.
//
// PasswordHash is only populated when the account was loaded with the
// credentials projection and is never serialized.
type Account struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email" validate:"required,email,max=255"`
	PasswordHash string     `json:"-" validate:"required"`
	Role         Role       `json:"role" validate:"required,role"`
	LastLogin    *time.Time `json:"lastLogin"`
	LoginCount   int        `json:"loginCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// AccountView is the outbound projection of an Account. It has no field
// for the password hash.
type AccountView struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	LastLogin  *time.Time `json:"lastLogin"`
	LoginCount int        `json:"loginCount"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// View returns the outbound projection of a.
func (a *Account) View() *AccountView {
	return &AccountView{
		ID:         a.ID,
		Email:      a.Email,
		Role:       a.Role,
		LastLogin:  a.LastLogin,
		LoginCount: a.LoginCount,
		CreatedAt:  a.CreatedAt,
	}
}
