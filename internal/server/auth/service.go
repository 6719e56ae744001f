package auth

import (
	"time"
)

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = time.Hour

// Token is an issued bearer token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService owns the signing secret and token lifetime. It is read-only
// after construction and safe for concurrent use.
type TokenService struct {
	secret Secret
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService. A non-positive ttl means
// DefaultTokenTTL.
func NewTokenService(secret Secret, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of s that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject.
func (s *TokenService) Issue(subject Subject) (Token, error) {
	now := s.now()
	value, err := GenerateToken(subject, s.secret, s.ttl, now)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: now.Add(s.ttl).Truncate(time.Second)}, nil
}

// Verify checks token and returns its claims.
func (s *TokenService) Verify(token string) (*Claims, error) {
	return ParseToken(token, s.secret, s.now())
}
