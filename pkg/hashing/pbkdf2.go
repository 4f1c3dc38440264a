package hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"strconv"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor used for every stored password.
	Iterations = 5000
	// KeyLength is the size of a derived password hash in bytes.
	KeyLength = 32
	// SaltLength is the size of a freshly generated salt in bytes.
	SaltLength = 32
)

// HashPassword derives a PBKDF2-SHA256 key from password and salt.
func HashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeyLength, sha256.New)
}

// Equal compares two hashes in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewSalt returns a random salt of SaltLength bytes.
func NewSalt() ([]byte, error) {
	return RandomBytes(SaltLength)
}

// TimestampToken hashes the given instant together with a random nonce.
// The nonce keeps two tokens minted within the same clock tick distinct.
func TimestampToken(now time.Time) ([]byte, error) {
	nonce, err := RandomBytes(16)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(now.UnixNano(), 10)))
	h.Write(nonce)
	return h.Sum(nil), nil
}
