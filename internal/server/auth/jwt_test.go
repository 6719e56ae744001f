package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccount/internal/common"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := SecretFromBytes([]byte("super-secret"))
	subject := Subject{ID: 123, Email: "admin@test.com", Role: models.RoleAdmin}

	tok, err := GenerateToken(subject, secret, time.Hour, testNow)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ParseToken(tok, secret, testNow.Add(59*time.Minute))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != subject.ID {
		t.Fatalf("userID mismatch: got %d want %d", claims.UserID, subject.ID)
	}
	if claims.Role != models.RoleAdmin || claims.Email != "admin@test.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "123" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
	if !claims.ExpiresAt.Time.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("exp mismatch: %v", claims.ExpiresAt.Time)
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := SecretFromBytes([]byte("secret"))

	tok, err := GenerateToken(Subject{ID: 1}, secret, time.Hour, testNow)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, secret, testNow.Add(time.Hour+time.Second))
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(Subject{ID: 2}, SecretFromBytes([]byte("right-secret")), time.Hour, testNow)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, SecretFromBytes([]byte("wrong-secret")), testNow)
	if !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected common.ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not.a.jwt", "garbage", "a.b"} {
		_, err := ParseToken(s, SecretFromBytes([]byte("k")), testNow)
		if !errors.Is(err, common.ErrTokenMalformed) {
			t.Fatalf("ParseToken(%q): expected common.ErrTokenMalformed, got %v", s, err)
		}
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := SecretFromBytes([]byte("k"))
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
		UserID:           1,
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret.bytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(hs512, secret, testNow); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("HS512: expected common.ErrTokenInvalid, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseToken(none, secret, testNow); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("none: expected common.ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_MissingSubject(t *testing.T) {
	t.Parallel()

	secret := SecretFromBytes([]byte("k"))
	tok, err := GenerateToken(Subject{}, secret, time.Hour, testNow)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := ParseToken(tok, secret, testNow); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected common.ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_MissingExpiry(t *testing.T) {
	t.Parallel()

	secret := SecretFromBytes([]byte("k"))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 5}).SignedString(secret.bytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseToken(tok, secret, testNow); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected common.ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_TamperedPayload(t *testing.T) {
	t.Parallel()

	secret := SecretFromBytes([]byte("k"))
	a, _ := GenerateToken(Subject{ID: 1}, secret, time.Hour, testNow)
	b, _ := GenerateToken(Subject{ID: 2}, secret, time.Hour, testNow)

	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	forged := pa[0] + "." + pb[1] + "." + pa[2]

	if _, err := ParseToken(forged, secret, testNow); !errors.Is(err, common.ErrTokenInvalid) {
		t.Fatalf("expected common.ErrTokenInvalid, got %v", err)
	}
}

func TestGenerateToken_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := GenerateToken(Subject{ID: 1}, Secret{}, time.Hour, testNow); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
