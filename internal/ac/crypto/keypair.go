// Package crypto implements the AC crypto core: signing-key generation,
// private-key-at-rest encryption, EdDSA JWT signing, and secret hashing.
// It generalizes the key-handling patterns of gourdiantoken to the single
// algorithm this system actually uses — Ed25519/EdDSA — rather than the
// full RSA/ECDSA/HMAC matrix gourdiantoken supports.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

const (
	pemPrivateBlockType = "PRIVATE KEY"
	pemPublicBlockType  = "PUBLIC KEY"
)

// KeyPair is a generated Ed25519 signing key in the PEM encodings the
// keystore persists: PKCS8 for the private half, PKIX for the public half.
type KeyPair struct {
	PublicKeyPEM     []byte
	PrivateKeyPKCS8  []byte
}

// GenerateSigningKey produces a fresh Ed25519 key pair seeded from the
// system CSPRNG. Any generator or encoding failure is a Crypto error —
// it should never happen in practice and is not retried.
func GenerateSigningKey() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("generate ed25519 key: %w", err))
	}

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("marshal pkcs8 private key: %w", err))
	}
	pubBytes, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("marshal pkix public key: %w", err))
	}

	return &KeyPair{
		PublicKeyPEM: pem.EncodeToMemory(&pem.Block{
			Type:  pemPublicBlockType,
			Bytes: pubBytes,
		}),
		PrivateKeyPKCS8: privBytes,
	}, nil
}

// ParsePrivateKey validates that raw is a PKCS8-encoded Ed25519 private
// key and returns it. Malformed or wrong-type input fails with Crypto:
// signing must never accept unvalidated key material.
func ParsePrivateKey(raw []byte) (ed25519.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(raw)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("parse pkcs8 private key: %w", err))
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("private key is not ed25519"))
	}
	return priv, nil
}

// ParsePublicKeyPEM parses a PKIX-encoded Ed25519 public key from its PEM
// wrapper, as stored alongside the private key in the keystore.
func ParsePublicKeyPEM(pemBytes []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("no PEM block found"))
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("parse pkix public key: %w", err))
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, cperr.New(cperr.Crypto, fmt.Errorf("public key is not ed25519"))
	}
	return pub, nil
}
