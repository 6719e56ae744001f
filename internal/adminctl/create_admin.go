package adminctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/flagx"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/dmitrijs2005/gophaccount/internal/server/services"
)

// AccountCreator is the slice of services.AccountService create-admin needs.
type AccountCreator interface {
	Create(ctx context.Context, in services.CreateAccountInput) (*models.AccountView, error)
}

// CreateAdmin prompts for whatever args do not provide and creates an ADMIN
// account. Recognized flags: -email. The password is always read from the
// terminal and must be entered twice.
func CreateAdmin(ctx context.Context, accounts AccountCreator, args []string, in io.Reader, out io.Writer) (*models.AccountView, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "admin email")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "--email"})); err != nil {
		return nil, err
	}

	reader := bufio.NewReader(in)

	if strings.TrimSpace(*email) == "" {
		v, err := GetSimpleText(reader, "Enter admin email", out)
		if err != nil {
			return nil, fmt.Errorf("read email: %w", err)
		}
		*email = v
	}

	pw, err := GetPassword("Enter password", out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	confirm, err := GetPassword("Repeat password", out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if pw != confirm {
		return nil, common.ErrorPasswordMismatch
	}

	return accounts.Create(ctx, services.CreateAccountInput{
		Email:    *email,
		Password: pw,
		Role:     models.RoleAdmin,
	})
}

// Describe renders err for an operator.
func Describe(err error) string {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return "invalid input:\n  " + strings.Join(ve.Errors, "\n  ")
	case errors.Is(err, common.ErrorAlreadyExists):
		return "email already in use"
	case errors.Is(err, common.ErrorMissingInput):
		return "email and password are required"
	case errors.Is(err, common.ErrorPasswordMismatch):
		return "passwords do not match"
	default:
		return err.Error()
	}
}
