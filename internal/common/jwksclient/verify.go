package jwksclient

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

// Verifier validates AC-issued tokens using a Client's cached JWKS. It
// implements the verify path for any non-AC caller (GC, MC): size guard,
// kid extraction, signature, exp, and iat-skew.
type Verifier struct {
	jwks       *Client
	maxSize    int
	clockSkew  time.Duration
}

func NewVerifier(jwks *Client, maxSize int, clockSkew time.Duration) *Verifier {
	return &Verifier{jwks: jwks, maxSize: maxSize, clockSkew: clockSkew}
}

// Verify returns the parsed claims or an error. Every defect of the token
// itself (size, kid, signature, exp, iat) collapses to the same opaque
// cperr.InvalidToken. An error from the JWKS client is returned as it is,
// so a key set that cannot be fetched surfaces as cperr.ServiceUnavailable.
func (v *Verifier) Verify(ctx context.Context, token string) (*jwtclaims.Claims, error) {
	kid, err := jwtclaims.ExtractKid(token, v.maxSize)
	if err != nil {
		return nil, cperr.New(cperr.InvalidToken, err)
	}

	pub, err := v.jwks.Get(ctx, kid)
	if err != nil {
		return nil, err
	}

	claims := &jwtclaims.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != "EdDSA" {
			return nil, cperr.Newf(cperr.InvalidToken, "unexpected alg %q", t.Method.Alg())
		}
		return ed25519.PublicKey(pub), nil
	}, jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil || !parsed.Valid {
		return nil, cperr.New(cperr.InvalidToken, err)
	}

	if claims.IssuedAt != nil {
		if err := jwtclaims.ValidateIssuedAt(claims.IssuedAt.Time, time.Now(), v.clockSkew); err != nil {
			return nil, cperr.New(cperr.InvalidToken, err)
		}
	}

	return claims, nil
}
