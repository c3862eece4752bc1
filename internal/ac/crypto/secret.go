package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

const bcryptCost = 12

// HashSecret bcrypt-hashes a client secret or password at a fixed cost. A
// higher or lower configured cost is never consulted — the cost is
// load-bearing for the expected bcrypt latency budget.
func HashSecret(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", cperr.New(cperr.Crypto, fmt.Errorf("bcrypt hash: %w", err))
	}
	return string(hash), nil
}

// VerifySecret reports whether plaintext matches hash. A mismatch is not
// an error — it returns (false, nil). Only a syntactically invalid stored
// hash surfaces as a Crypto error.
func VerifySecret(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch err {
	case nil:
		return true, nil
	case bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, cperr.New(cperr.Crypto, fmt.Errorf("malformed bcrypt hash: %w", err))
	}
}

// RandomBytes fills n CSPRNG bytes. Used for nonces, client secrets, and
// anywhere else a CSPRNG fill is needed.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("read random bytes: %w", err))
	}
	return buf, nil
}

// NewClientSecret generates a CSPRNG client secret, base64-standard
// encoded, for service-account (GC/MC) credentials.
func NewClientSecret() (string, error) {
	raw, err := RandomBytes(32)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
