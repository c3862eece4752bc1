// Package middleware implements GC's bearer-token guard for its REST
// surfaces, verifying against AC's cached JWKS rather than a local
// keystore (only AC verifies against its own keystore directly).
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwksclient"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

type claimsContextKey struct{}

const bearerPrefix = "Bearer "

// AuthGuard verifies a bearer token against the JWKS. If requireScope is
// non-empty, the claim set must carry it.
type AuthGuard struct {
	verifier     *jwksclient.Verifier
	requireScope string
}

func NewAuthGuard(verifier *jwksclient.Verifier, requireScope string) *AuthGuard {
	return &AuthGuard{verifier: verifier, requireScope: requireScope}
}

func (g *AuthGuard) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			writeAuthError(w, cperr.New(cperr.InvalidToken, nil))
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)

		claims, err := g.verifier.Verify(r.Context(), token)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		if g.requireScope != "" && !claims.HasScope(g.requireScope) {
			writeAuthError(w, cperr.New(cperr.PermissionDenied, nil))
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

func ClaimsFromContext(ctx context.Context) (*jwtclaims.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwtclaims.Claims)
	return claims, ok
}

func writeAuthError(w http.ResponseWriter, err error) {
	kind := cperr.KindOf(err)
	message := "An internal error occurred"
	if e, ok := cperr.As(err); ok {
		message = e.ClientMessage()
	}
	if kind == cperr.InvalidToken {
		w.Header().Set("WWW-Authenticate", `Bearer realm="gc", error="invalid_token"`)
	}
	w.WriteHeader(cperr.HTTPStatus(kind))
	_, _ = w.Write([]byte(message))
}
