package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrEmptySecret is returned when no signing secret is configured.
var ErrEmptySecret = errors.New("hash: secret is required")

// Hash digests and verifies secrets.
type Hash interface {
	Hash(parts ...string) (string, error)
	Verify(hashed string, parts ...string) bool
}

// HMACSHA256 implements Hash with HMAC-SHA256.
//
// Digests are produced with the first secret. Verification accepts any of the
// configured secrets so a secret can be rotated without invalidating codes
// that are still live.
type HMACSHA256 struct {
	secrets [][]byte
}

// NewHMACSHA256 creates a new hasher. The first secret signs, every secret verifies.
func NewHMACSHA256(secret string, previous ...string) (*HMACSHA256, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	h := &HMACSHA256{secrets: [][]byte{[]byte(secret)}}
	for _, p := range previous {
		if p != "" {
			h.secrets = append(h.secrets, []byte(p))
		}
	}

	return h, nil
}

// Hash returns the hex encoded digest of parts joined by a unit separator.
func (s *HMACSHA256) Hash(parts ...string) (string, error) {
	return string(gen(s.secrets[0], parts)), nil
}

// Verify reports whether hashed is the digest of parts under any known secret.
func (s *HMACSHA256) Verify(hashed string, parts ...string) bool {
	match := 0
	for _, secret := range s.secrets {
		match |= subtle.ConstantTimeCompare([]byte(hashed), gen(secret, parts))
	}
	return match == 1
}

func gen(secret []byte, parts []string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(strings.Join(parts, "\x1f")))
	sum := h.Sum(nil)
	result := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(result, sum)
	return result
}
