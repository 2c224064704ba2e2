// Package fallback verifies secrets against an operator configured digest, bypassing the
// system authentication service.
package fallback

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDigest is returned when the configured digest is not a hex encoded SHA-256 sum.
var ErrInvalidDigest = errors.New("fallback digest must be a hex encoded SHA-256 sum")

// Verifier compares secrets to a reference digest. The zero value is disabled.
type Verifier struct {
	digest []byte
}

// New returns a Verifier for the hex encoded SHA-256 hexDigest.
// An empty hexDigest returns a disabled Verifier.
func New(hexDigest string) (Verifier, error) {
	hexDigest = strings.TrimSpace(hexDigest)
	if hexDigest == "" {
		return Verifier{}, nil
	}

	d, err := hex.DecodeString(hexDigest)
	if err != nil {
		return Verifier{}, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if len(d) != sha256.Size {
		return Verifier{}, fmt.Errorf("%w: got %d bytes", ErrInvalidDigest, len(d))
	}

	return Verifier{digest: d}, nil
}

// Enabled reports whether a reference digest is configured.
func (v Verifier) Enabled() bool {
	return len(v.digest) > 0
}

// Matches returns true if the digest of secret is the reference one.
// It always returns false on a disabled Verifier.
func (v Verifier) Matches(secret []byte) bool {
	if !v.Enabled() {
		return false
	}

	sum := sha256.Sum256(secret)
	defer clear(sum[:])

	return subtle.ConstantTimeCompare(sum[:], v.digest) == 1
}

// Digest returns the lowercase hex encoded digest of secret, as expected by [New].
func Digest(secret []byte) string {
	sum := sha256.Sum256(secret)
	return hex.EncodeToString(sum[:])
}
