package services

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccount_Messages(t *testing.T) {
	s := &AccountService{validate: newValidator()}

	tests := []struct {
		name    string
		account models.Account
		want    []string
	}{
		{
			name:    "valid",
			account: models.Account{Email: "a@b.io", PasswordHash: "h", Role: models.RoleCustomer},
		},
		{
			name:    "everything missing",
			account: models.Account{},
			want:    []string{"email is required", "PasswordHash is required", "role is required"},
		},
		{
			name:    "bad email and role",
			account: models.Account{Email: "nope", PasswordHash: "h", Role: "ROOT"},
			want:    []string{"email must be a valid email address", "role must be one of ADMIN, CUSTOMER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validateAccount(&tt.account)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			var ve *common.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.want, ve.Errors)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestProfileMessages_IgnoresHash(t *testing.T) {
	s := &AccountService{validate: newValidator()}

	msgs, err := s.profileMessages(&models.Account{Email: "a@b.io", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
