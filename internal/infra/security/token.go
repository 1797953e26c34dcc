package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a random numeric string of the given length,
// suitable for one-time reset codes.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}

	return string(digits), nil
}

// GenerateSecureToken returns a base64 URL-safe random string using the
// specified number of random bytes. Used for opaque session tokens.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// tempPasswordAlphabet avoids visually ambiguous characters so provisioned
// credentials survive being read off a screen or an email.
const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// GenerateTempPassword produces a readable one-time password for admin-created
// accounts. The caller receives it exactly once; only the hash is stored.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}

	return string(out), nil
}

// HashToken calculates a SHA-256 hash of the provided value. Reset codes and
// session tokens are stored hashed, never raw.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
