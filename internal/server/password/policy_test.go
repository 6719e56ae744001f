package password

import (
	"math/rand"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		cfg    PolicyConfig
		accept []string
		reject []string
	}{
		{
			name:   "minimum length",
			cfg:    PolicyConfig{MinLength: 10, MaxLength: 15, RequireUppercase: true, RequireLowercase: true},
			accept: []string{"testPASSWORD", "testPASS123"},
			reject: []string{"testPASS"},
		},
		{
			name:   "maximum length",
			cfg:    PolicyConfig{MinLength: 5, MaxLength: 10, RequireUppercase: true, RequireLowercase: true},
			accept: []string{"testPASSWO", "testPASSW"},
			reject: []string{"testPASSWORD"},
		},
		{
			name:   "uppercase",
			cfg:    PolicyConfig{MinLength: 5, MaxLength: 10, RequireUppercase: true},
			accept: []string{"TESTPASS"},
			reject: []string{"testpass"},
		},
		{
			name:   "lowercase",
			cfg:    PolicyConfig{MinLength: 5, MaxLength: 10, RequireLowercase: true},
			accept: []string{"testpass"},
			reject: []string{"TESTPASS"},
		},
		{
			name:   "digits",
			cfg:    PolicyConfig{MinLength: 5, MaxLength: 20, RequireUppercase: true, RequireDigits: true},
			accept: []string{"TESTPASS123"},
			reject: []string{"testpassword"},
		},
		{
			name:   "spaces forbidden",
			cfg:    PolicyConfig{MinLength: 5, MaxLength: 10, RequireUppercase: true},
			accept: []string{"TESTPASS"},
			reject: []string{"test pass", "TEST PASS", "TEST\tPASS"},
		},
		{
			name:   "spaces required",
			cfg:    PolicyConfig{MinLength: 5, MaxLength: 10, RequireUppercase: true, RequireSpaces: true},
			accept: []string{"TEST PASS"},
			reject: []string{"testpass", "TESTPASS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(tt.cfg)
			for _, s := range tt.accept {
				assert.True(t, p.Validate(s), "expected %q to pass", s)
				assert.Empty(t, p.Check(s))
			}
			for _, s := range tt.reject {
				assert.False(t, p.Validate(s), "expected %q to fail", s)
				assert.NotEmpty(t, p.Check(s))
			}
		})
	}
}

func TestPolicy_EmptyCandidate(t *testing.T) {
	assert.True(t, NewPolicy(PolicyConfig{}).Validate(""))
	assert.False(t, NewPolicy(PolicyConfig{MinLength: 1}).Validate(""))
	assert.False(t, NewPolicy(PolicyConfig{RequireDigits: true}).Validate(""))
	assert.False(t, NewPolicy(PolicyConfig{RequireSpaces: true}).Validate(""))
}

func TestNewPolicy_CoercesMalformedConfig(t *testing.T) {
	tests := []struct {
		name    string
		in      PolicyConfig
		wantMin int
		wantMax int
	}{
		{name: "negative min", in: PolicyConfig{MinLength: -3, MaxLength: 10}, wantMin: 0, wantMax: 10},
		{name: "zero max below min", in: PolicyConfig{MinLength: 4}, wantMin: 4, wantMax: DefaultMaxLength},
		{name: "zero max and min", in: PolicyConfig{}, wantMin: 0, wantMax: 0},
		{name: "negative max with zero min", in: PolicyConfig{MaxLength: -1}, wantMin: 0, wantMax: DefaultMaxLength},
		{name: "negative max", in: PolicyConfig{MinLength: 4, MaxLength: -1}, wantMin: 4, wantMax: DefaultMaxLength},
		{name: "max below min", in: PolicyConfig{MinLength: 12, MaxLength: 8}, wantMin: 12, wantMax: DefaultMaxLength},
		{name: "sane", in: PolicyConfig{MinLength: 8, MaxLength: 64}, wantMin: 8, wantMax: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewPolicy(tt.in).Config()
			assert.Equal(t, tt.wantMin, cfg.MinLength)
			assert.Equal(t, tt.wantMax, cfg.MaxLength)
		})
	}
}

func TestPolicy_ZeroBoundsAcceptOnlyEmpty(t *testing.T) {
	p := NewPolicy(PolicyConfig{MinLength: 0, MaxLength: 0})
	assert.Equal(t, 0, p.Config().MaxLength)
	assert.True(t, p.Validate(""))
	assert.False(t, p.Validate("abc"))
	assert.Contains(t, p.Check("abc"), "must be at most 0 characters long")
}

func TestPolicy_LengthCountsRunes(t *testing.T) {
	p := NewPolicy(PolicyConfig{MinLength: 4, MaxLength: 4})
	assert.True(t, p.Validate("пароль"[:8]))
	assert.False(t, p.Validate("пароль"))
}

// reference is an independent statement of the acceptance rule.
func reference(cfg PolicyConfig, s string) bool {
	n := utf8.RuneCountInString(s)
	if n < cfg.MinLength || n > cfg.MaxLength {
		return false
	}
	has := func(f func(rune) bool) bool { return strings.IndexFunc(s, f) >= 0 }
	if cfg.RequireUppercase && !has(unicode.IsUpper) {
		return false
	}
	if cfg.RequireLowercase && !has(unicode.IsLower) {
		return false
	}
	if cfg.RequireDigits && !has(unicode.IsDigit) {
		return false
	}
	return cfg.RequireSpaces == has(unicode.IsSpace)
}

func TestPolicy_MatchesReferenceOnRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(20261019))
	alphabet := []rune("abcXYZ019 \tÄöß-_!")

	for i := 0; i < 2000; i++ {
		minLen := rng.Intn(8)
		cfg := PolicyConfig{
			MinLength:        minLen,
			MaxLength:        minLen + rng.Intn(10),
			RequireUppercase: rng.Intn(2) == 0,
			RequireLowercase: rng.Intn(2) == 0,
			RequireDigits:    rng.Intn(2) == 0,
			RequireSpaces:    rng.Intn(4) == 0,
		}
		p := NewPolicy(cfg)

		runes := make([]rune, rng.Intn(20))
		for j := range runes {
			runes[j] = alphabet[rng.Intn(len(alphabet))]
		}
		s := string(runes)

		if got, want := p.Validate(s), reference(p.Config(), s); got != want {
			t.Fatalf("cfg=%+v candidate=%q: Validate=%v, want %v (violations %v)", cfg, s, got, want, p.Check(s))
		}
		if p.Validate(s) != p.Validate(s) {
			t.Fatalf("non-deterministic result for %q", s)
		}
	}
}
