package crypto

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

// SignJWT signs claims with EdDSA over the given Ed25519 private key,
// stamping the header's kid so verifiers can resolve the matching JWK.
// The key is re-validated here (not just by the caller) since a malformed
// key must fail with Crypto rather than a generic jwt-library error.
func SignJWT(priv ed25519.PrivateKey, kid string, claims *jwtclaims.Claims) (string, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return "", cperr.New(cperr.Crypto, fmt.Errorf("invalid ed25519 private key size %d", len(priv)))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(priv)
	if err != nil {
		return "", cperr.New(cperr.Crypto, fmt.Errorf("sign jwt: %w", err))
	}
	return signed, nil
}
