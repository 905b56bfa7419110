package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// TTL is how long a generated code stays valid.
const TTL = 10 * time.Minute

const codeSpace = 1000000

// Store keeps at most one live code per identity. Verify consumes a
// matching code; a mismatch leaves it in place until it expires.
type Store interface {
	Generate(ctx context.Context, identity string) (string, error)
	Verify(ctx context.Context, identity, code string) (bool, error)
	Invalidate(ctx context.Context, identity string) error
}

type Record struct {
	Identity string
	Code     string
	Expires  time.Time
}

// Normalize is the key form of an identity (email).
func Normalize(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// newCode returns a zero-padded six digit code, uniform over 000000-999999.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("otp: can't read random source: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
