// Package auth issues and verifies the signed bearer tokens that carry an
// account identity between requests.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the standard registered claims plus the
// account identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64       `json:"userId"`
	Email  string      `json:"email,omitempty"`
	Role   models.Role `json:"role,omitempty"`
}

// Subject identifies the account a token is issued for.
type Subject struct {
	ID    int64
	Email string
	Role  models.Role
}

// GenerateToken signs an HS256 token for subject, valid for ttl from now.
func GenerateToken(subject Subject, secret Secret, ttl time.Duration, now time.Time) (string, error) {
	if secret.IsZero() {
		return "", errors.New("empty signing secret")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: subject.ID,
		Email:  subject.Email,
		Role:   subject.Role,
	})

	tokenString, err := token.SignedString(secret.bytes())
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature, algorithm and expiry at the instant now and
// returns the claims. Errors are one of common.ErrTokenMalformed,
// common.ErrTokenInvalid or common.ErrTokenExpired.
func ParseToken(tokenString string, secret Secret, now time.Time) (*Claims, error) {
	if tokenString == "" {
		return nil, common.ErrTokenMalformed
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret.bytes(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, common.ErrTokenMalformed
		default:
			return nil, common.ErrTokenInvalid
		}
	}

	if !token.Valid || claims.UserID <= 0 {
		return nil, common.ErrTokenInvalid
	}

	return claims, nil
}
