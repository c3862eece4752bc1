package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

const (
	masterKeySize = 32 // AES-256
	nonceSize     = 12 // 96-bit GCM nonce
	tagSize       = 16 // 128-bit GCM tag
)

// Envelope is a private key encrypted at rest: ciphertext and tag stored
// separately, nonce alongside.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// Encrypt seals plaintext (a PKCS8 private key) under a 32-byte master key
// using AES-256-GCM with a random 96-bit nonce and empty AAD. The GCM tag
// is split from the ciphertext for storage, matching the three-column
// shape the keystore persists.
func Encrypt(masterKey, plaintext []byte) (*Envelope, error) {
	if len(masterKey) != masterKeySize {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("master key must be %d bytes, got %d", masterKeySize, len(masterKey)))
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("new aes cipher: %w", err))
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("new gcm: %w", err))
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("read nonce: %w", err))
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return &Envelope{Ciphertext: ciphertext, Nonce: nonce, Tag: tag}, nil
}

// Decrypt opens an Envelope produced by Encrypt. Wrong key, wrong nonce
// length, wrong tag length, and authentication failure all collapse to a
// single Crypto error — the cause is never surfaced to the caller, only
// logged, so plaintext key material never leaks.
func Decrypt(masterKey []byte, env *Envelope) ([]byte, error) {
	if len(masterKey) != masterKeySize {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("master key must be %d bytes, got %d", masterKeySize, len(masterKey)))
	}
	if len(env.Nonce) != nonceSize {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("invalid nonce length %d", len(env.Nonce)))
	}
	if len(env.Tag) != tagSize {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("invalid tag length %d", len(env.Tag)))
	}

	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("new aes cipher: %w", err))
	}
	gcm, err := cipher.NewGCMWithTagSize(block, tagSize)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("new gcm: %w", err))
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.Tag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.Tag...)

	plaintext, err := gcm.Open(nil, env.Nonce, sealed, nil)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("authentication failed"))
	}
	return plaintext, nil
}
