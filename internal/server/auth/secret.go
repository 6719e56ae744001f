package auth

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrijs2005/gophaccount/internal/common"
)

// DefaultSecretSegments is used when a non-positive segment count is requested.
const DefaultSecretSegments = 4

const segmentBytes = 16

// Secret is the HMAC key used to sign and verify access tokens. It is
// generated once per process and never leaves it; String and LogValue
// redact the value.
type Secret struct {
	key []byte
}

// NewSecret concatenates segments hex-encoded blocks of 16 random bytes.
func NewSecret(segments int) (Secret, error) {
	if segments <= 0 {
		segments = DefaultSecretSegments
	}

	var b strings.Builder
	for i := 0; i < segments; i++ {
		seg, err := common.MakeRandHexString(segmentBytes)
		if err != nil {
			return Secret{}, fmt.Errorf("generate secret: %w", err)
		}
		b.WriteString(seg)
	}

	return Secret{key: []byte(b.String())}, nil
}

// SecretFromBytes wraps an externally provided key. Used by tests and tools
// that need a stable secret.
func SecretFromBytes(key []byte) Secret {
	k := make([]byte, len(key))
	copy(k, key)
	return Secret{key: k}
}

// Len returns the key length in bytes.
func (s Secret) Len() int {
	return len(s.key)
}

// IsZero reports whether the secret was never initialized.
func (s Secret) IsZero() bool {
	return len(s.key) == 0
}

func (s Secret) bytes() []byte {
	return s.key
}

func (s Secret) String() string {
	return "[REDACTED]"
}

func (s Secret) GoString() string {
	return "auth.Secret{[REDACTED]}"
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}
