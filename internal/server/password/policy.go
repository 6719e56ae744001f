// Package password holds the password strength policy and the one-way
// credential hasher.
package password

import (
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength is used when the configured maximum is below the minimum.
const DefaultMaxLength = math.MaxInt32

// PolicyConfig describes password acceptability.
//
// RequireSpaces is two-sided: true means at least one whitespace character
// is required, false means whitespace is forbidden.
type PolicyConfig struct {
	MinLength        int  `json:"min_length"`
	MaxLength        int  `json:"max_length"`
	RequireUppercase bool `json:"require_uppercase"`
	RequireLowercase bool `json:"require_lowercase"`
	RequireDigits    bool `json:"require_digits"`
	RequireSpaces    bool `json:"require_spaces"`
}

// Policy is an immutable password predicate. It is safe for concurrent use.
type Policy struct {
	cfg PolicyConfig
}

// NewPolicy builds a Policy. It never fails: a negative minimum becomes 0 and
// a maximum below the minimum becomes DefaultMaxLength. {0, 0} is a valid
// configuration that accepts only the empty string.
func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.MinLength < 0 {
		cfg.MinLength = 0
	}
	if cfg.MaxLength < cfg.MinLength {
		cfg.MaxLength = DefaultMaxLength
	}
	return &Policy{cfg: cfg}
}

// Config returns the effective (coerced) configuration.
func (p *Policy) Config() PolicyConfig {
	return p.cfg
}

// Validate reports whether candidate satisfies every rule.
func (p *Policy) Validate(candidate string) bool {
	return len(p.Check(candidate)) == 0
}

// Check returns the violated rules, or nil when candidate is acceptable.
// Length is counted in runes.
func (p *Policy) Check(candidate string) []string {
	var violations []string

	n := utf8.RuneCountInString(candidate)
	if n < p.cfg.MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters long", p.cfg.MinLength))
	}
	if n > p.cfg.MaxLength {
		violations = append(violations, fmt.Sprintf("must be at most %d characters long", p.cfg.MaxLength))
	}

	var upper, lower, digit, space bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			space = true
		}
	}

	if p.cfg.RequireUppercase && !upper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if p.cfg.RequireLowercase && !lower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if p.cfg.RequireDigits && !digit {
		violations = append(violations, "must contain a digit")
	}
	if p.cfg.RequireSpaces && !space {
		violations = append(violations, "must contain a space")
	}
	if !p.cfg.RequireSpaces && space {
		violations = append(violations, "must not contain spaces")
	}

	return violations
}
