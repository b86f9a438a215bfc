// Package cryptoutil holds the hashing and comparison primitives the
// gateway relies on: SHA-256 digests for passwords and admin tokens,
// constant-time comparison, and random secret generation.
package cryptoutil

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"github.com/keithlinneman/sitegate/internal/xerrors"
)

// SHA256Hex computes the SHA-256 hash of the input and returns it as a
// lowercase hex string. Used for password hashes and admin token lookup
// keys; never persist the raw value.
func SHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// HashEqual performs constant-time comparison of two equal-length hex
// digests. Returns false for length mismatches without leaking where
// they differ.
func HashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StringsEqual compares two arbitrary strings in constant time. The
// inputs are hashed first so the comparison always runs over fixed-size
// digests regardless of input lengths; an attacker learns nothing from
// timing, including whether the lengths matched.
func StringsEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}

// NewSecretHex returns nbytes of cryptographically secure randomness as
// a hex string. Used for per-site HMAC secrets.
func NewSecretHex(nbytes int) (string, error) {
	if nbytes < 16 {
		return "", xerrors.New("secret size too small")
	}
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "", xerrors.Wrap(err, "read random")
	}
	return hex.EncodeToString(b), nil
}

// NewToken returns nbytes of cryptographically secure randomness as a
// URL-safe base64 string. Used for admin bearer tokens.
func NewToken(nbytes int) (string, error) {
	if nbytes < 16 {
		return "", xerrors.New("token size too small")
	}
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "", xerrors.Wrap(err, "read random")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
