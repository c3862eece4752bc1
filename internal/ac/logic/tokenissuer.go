// Package logic implements AC's request handlers in the teacher's
// Logic-struct-per-operation style (ctx, svcCtx, logx.Logger).
package logic

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	accrypto "github.com/meetmesh/control-plane/internal/ac/crypto"
	"github.com/meetmesh/control-plane/internal/ac/svc"
	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

// issueToken signs claims with AC's currently active key, shared by every
// AC logic handler that mints a token (login, internal meeting/guest
// token). It stamps sub/iat/exp/jti and the caller's claims, then signs
// via AC's own crypto core.
func issueToken(ctx context.Context, svcCtx *svc.ServiceContext, subject, scope string, ttl time.Duration, extra func(*jwtclaims.Claims)) (string, time.Time, error) {
	key, err := svcCtx.Keys.ActiveKey(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	priv, err := svcCtx.Keys.PrivateKey(key)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	jti, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, cperr.New(cperr.Crypto, err)
	}

	claims := &jwtclaims.Claims{
		Subject: subject,
		Scope:   scope,
		JTI:     jti.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    svcCtx.Config.Auth.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if extra != nil {
		extra(claims)
	}

	signed, err := accrypto.SignJWT(priv, key.KeyID, claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
