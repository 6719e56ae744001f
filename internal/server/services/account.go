// Package services contains server-side business logic. This file implements
// AccountService: account lifecycle, credential changes and login.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/dbx"
	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/dmitrijs2005/gophaccount/internal/server/auth"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/dmitrijs2005/gophaccount/internal/server/password"
	"github.com/dmitrijs2005/gophaccount/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophaccount/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// CredentialHasher is a password.Hasher that can also spend a verification
// without a stored hash.
type CredentialHasher interface {
	password.Hasher
	DummyVerify(plaintext string)
}

// CreateAccountInput is the payload of an admin-initiated account creation.
type CreateAccountInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// ChangePasswordInput is the payload of a self-service password change.
type ChangePasswordInput struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateAccountInput carries the profile fields an admin may change. Empty
// fields are left as they are.
type UpdateAccountInput struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	Account   *models.AccountView `json:"account"`
}

// AccountService provides account operations on top of the accounts
// repository, the password policy, the hasher and the token service.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	policy      *password.Policy
	hasher      CredentialHasher
	tokens      *auth.TokenService
	validate    *validator.Validate
	log         logging.Logger
	now         func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, policy *password.Policy,
	hasher CredentialHasher, tokens *auth.TokenService, log logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		policy:      policy,
		hasher:      hasher,
		tokens:      tokens,
		validate:    newValidator(),
		log:         log,
		now:         time.Now,
	}
}

// normalizeEmail trims surrounding whitespace. Emails are case-sensitive.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// passwordMessages applies the policy and the hasher's byte limit.
func (s *AccountService) passwordMessages(plaintext string) []string {
	var msgs []string
	for _, v := range s.policy.Check(plaintext) {
		msgs = append(msgs, "password "+v)
	}
	if len(plaintext) > password.MaxBytes {
		msgs = append(msgs, fmt.Sprintf("password must be at most %d bytes long", password.MaxBytes))
	}
	return msgs
}

// Create validates and stores a new account.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*models.AccountView, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || in.Role == "" {
		return nil, common.ErrorMissingInput
	}

	account := &models.Account{Email: normalizeEmail(in.Email), Role: in.Role}

	msgs, err := s.profileMessages(account)
	if err != nil {
		return nil, fmt.Errorf("validate account: %w", err)
	}
	msgs = append(msgs, s.passwordMessages(in.Password)...)
	if len(msgs) > 0 {
		return nil, &common.ValidationError{Errors: msgs}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash

	created, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "account created", "account_id", created.ID, "role", created.Role)
	return created.View(), nil
}

// ChangePassword replaces the password of accountID after checking the old
// one. Loading, verification and the write share one transaction.
func (s *AccountService) ChangePassword(ctx context.Context, accountID int64, in ChangePasswordInput) error {
	if in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return common.ErrorMissingInput
	}
	if violations := s.passwordMessages(in.NewPassword); len(violations) > 0 {
		return &common.PolicyError{Violations: violations}
	}
	if in.NewPassword != in.ConfirmPassword {
		return common.ErrorPasswordMismatch
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.FindByID(ctx, accountID, accounts.ProjectionCredentials)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorStaleToken
			}
			return fmt.Errorf("error loading account: %w", err)
		}

		if !s.hasher.Verify(in.OldPassword, account.PasswordHash) {
			return common.ErrorUnauthorized
		}

		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		account.PasswordHash = hash

		if err := s.validateAccount(account); err != nil {
			return err
		}

		if err := repo.UpdatePassword(ctx, account.ID, account.PasswordHash); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorStaleToken
			}
			return fmt.Errorf("error updating password: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "account_id", accountID)
	return nil
}

// Login checks credentials, records the login and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, common.ErrorMissingInput
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(in.Password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if !s.hasher.Verify(in.Password, account.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	now := s.now().UTC()
	account.LastLogin = &now
	account.LoginCount++

	if err := repo.RecordLogin(ctx, account.ID, now, account.LoginCount); err != nil {
		return nil, fmt.Errorf("error recording login: %w", err)
	}

	token, err := s.tokens.Issue(auth.Subject{ID: account.ID, Email: account.Email, Role: account.Role})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info(ctx, "login succeeded", "account_id", account.ID)
	return &LoginResult{Token: token.Value, ExpiresAt: token.ExpiresAt, Account: account.View()}, nil
}

// Whoami returns the caller's own account. A token whose account has been
// removed yields common.ErrorStaleToken.
func (s *AccountService) Whoami(ctx context.Context, accountID int64) (*models.AccountView, error) {
	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, accountID, accounts.ProjectionPublic)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorStaleToken
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account.View(), nil
}

// List returns every account ordered by id.
func (s *AccountService) List(ctx context.Context) ([]models.AccountView, error) {
	list, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}

	views := make([]models.AccountView, 0, len(list))
	for _, a := range list {
		views = append(views, *a.View())
	}
	return views, nil
}

// Get returns one account or common.ErrorNotFound.
func (s *AccountService) Get(ctx context.Context, id int64) (*models.AccountView, error) {
	return s.FindAccount(ctx, id)
}

// FindAccount is the lookup used by the authorization gate.
func (s *AccountService) FindAccount(ctx context.Context, id int64) (*models.AccountView, error) {
	account, err := s.repomanager.Accounts(s.db).FindByID(ctx, id, accounts.ProjectionPublic)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account.View(), nil
}

// Update changes email and/or role of account id.
func (s *AccountService) Update(ctx context.Context, id int64, in UpdateAccountInput) (*models.AccountView, error) {
	if strings.TrimSpace(in.Email) == "" && in.Role == "" {
		return nil, common.ErrorMissingInput
	}

	repo := s.repomanager.Accounts(s.db)

	account, err := repo.FindByID(ctx, id, accounts.ProjectionPublic)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if strings.TrimSpace(in.Email) != "" {
		account.Email = normalizeEmail(in.Email)
	}
	if in.Role != "" {
		account.Role = in.Role
	}

	msgs, err := s.profileMessages(account)
	if err != nil {
		return nil, fmt.Errorf("validate account: %w", err)
	}
	if len(msgs) > 0 {
		return nil, &common.ValidationError{Errors: msgs}
	}

	if err := repo.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.ErrorAlreadyExists
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating account: %w", err)
	}

	s.log.Info(ctx, "account updated", "account_id", account.ID, "role", account.Role)
	return account.View(), nil
}

// Delete removes account id permanently.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.repomanager.Accounts(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting account: %w", err)
	}

	s.log.Info(ctx, "account deleted", "account_id", id)
	return nil
}
