package logic

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meetmesh/control-plane/internal/ac/keystore"
	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

// VerifyLocal implements AC's own local-resolution verify path: AC is the
// only service that never goes through jwksclient, since it is the
// keystore of record. Used by AC's own middleware to authenticate
// incoming requests (e.g. the rotate-keys and internal-token endpoints).
func VerifyLocal(ctx context.Context, keys *keystore.Store, maxSize int, clockSkew time.Duration, token string) (*jwtclaims.Claims, error) {
	kid, err := jwtclaims.ExtractKid(token, maxSize)
	if err != nil {
		return nil, cperr.New(cperr.InvalidToken, err)
	}

	key, err := keys.KeyByID(ctx, kid)
	if err != nil {
		return nil, cperr.New(cperr.InvalidToken, err)
	}
	pub, err := keys.PublicKey(key)
	if err != nil {
		return nil, cperr.New(cperr.InvalidToken, err)
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
		if err := jwtclaims.ValidateIssuedAt(claims.IssuedAt.Time, time.Now(), clockSkew); err != nil {
			return nil, cperr.New(cperr.InvalidToken, err)
		}
	}

	return claims, nil
}
