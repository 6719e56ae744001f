package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// newValidator returns a validator that knows the "role" tag and reports
// fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})

	return v
}

func roleNames() string {
	known := models.KnownRoles()
	names := make([]string, len(known))
	for i, r := range known {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// describe turns one validator failure into a client-facing message.
func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "role":
		return fmt.Sprintf("%s must be one of %s", field, roleNames())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// validationMessages runs err through describe. Anything that is not a
// validator.ValidationErrors is returned as-is for the caller to wrap.
func validationMessages(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil, err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, describe(fe))
	}
	return msgs, nil
}

// validateAccount checks the full structural rules on a.
func (s *AccountService) validateAccount(a *models.Account) error {
	msgs, err := validationMessages(s.validate.Struct(a))
	if err != nil {
		return fmt.Errorf("validate account: %w", err)
	}
	if len(msgs) > 0 {
		return &common.ValidationError{Errors: msgs}
	}
	return nil
}

// profileMessages checks the fields a client controls directly.
func (s *AccountService) profileMessages(a *models.Account) ([]string, error) {
	return validationMessages(s.validate.StructPartial(a, "Email", "Role"))
}
