package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const secretLen = 32

// NewSecret returns a fresh 256-bit refresh-token secret, URL-safe encoded.
// The raw value is handed to the OAuth engine exactly once and never stored.
func NewSecret() (string, error) {
	buf := make([]byte, secretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSalt returns a per-session salt used to key the secret digest.
func NewSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash digests a presented secret with the session's salt. HMAC-SHA256 keyed
// by the salt: the secrets are high-entropy random values, so a slow KDF
// would add cost without adding security.
func Hash(secret, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Equal compares a presented secret against a stored digest in constant time.
func Equal(secret, salt, storedHash string) bool {
	computed := Hash(secret, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
