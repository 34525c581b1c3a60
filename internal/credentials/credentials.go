package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultPasswordLength is the length of generated account passwords
	DefaultPasswordLength = 10

	// FallbackSlug replaces names that normalize to nothing
	FallbackSlug = "user"

	suffixDigits   = 3
	fallbackBytes  = 4
	passwordChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixAlphabet = "0123456789"
)

// Slugify lowercases name, joins whitespace runs with a single underscore and
// drops everything outside [a-z0-9_]. Names that normalize to nothing become
// FallbackSlug.
func Slugify(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace)

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, r := range field {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
				b.WriteRune(r)
			}
		}
	}

	if b.Len() == 0 {
		return FallbackSlug
	}
	return b.String()
}

// UsernameCandidate appends an underscore and three random digits to slug.
// The suffix space is only 1000 values, so callers must check for collisions.
func UsernameCandidate(slug string) (string, error) {
	suffix, err := randomString(suffixAlphabet, suffixDigits)
	if err != nil {
		return "", err
	}
	return slug + "_" + suffix, nil
}

// FallbackUsername appends 8 random hex characters to slug. Its entropy is
// high enough that it is used without an existence check.
func FallbackUsername(slug string) (string, error) {
	b := make([]byte, fallbackBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return slug + "_" + hex.EncodeToString(b), nil
}

// GeneratePassword returns a password of the given length drawn uniformly
// from ASCII letters and digits
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	return randomString(passwordChars, length)
}

// HashPassword returns a salted bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. The comparison is
// constant time; a malformed hash never matches.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// randomString picks length characters from alphabet using crypto/rand
func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)

	for i := range out {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random number: %w", err)
		}
		out[i] = alphabet[num.Int64()]
	}

	return string(out), nil
}
