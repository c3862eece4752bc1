// Package middleware implements AC's bearer-token and scope-guard checks,
// generalizing the teacher's RequiredAuthMiddleware (which calls out to an
// auth RPC client) to call AC's own local verifier directly, since AC is
// the trust root and never needs to ask anyone else.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/meetmesh/control-plane/internal/ac/keystore"
	"github.com/meetmesh/control-plane/internal/ac/logic"
	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

type claimsContextKey struct{}

// ScopeGuard rejects requests whose bearer token does not carry one of the
// required scopes. An empty requiredScopes list means "any valid token".
type ScopeGuard struct {
	keys           *keystore.Store
	maxSize        int
	clockSkew      time.Duration
	requiredScopes []string
}

// NewScopeGuard builds a guard over AC's own keystore. clockSkew is AC's
// configured iat clock-skew window; jwtclaims.ClockSkewCap is not consulted.
func NewScopeGuard(keys *keystore.Store, maxSize int, clockSkew time.Duration, requiredScopes ...string) *ScopeGuard {
	return &ScopeGuard{keys: keys, maxSize: maxSize, clockSkew: clockSkew, requiredScopes: requiredScopes}
}

func (g *ScopeGuard) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(authorizationHeader)
		if !strings.HasPrefix(header, bearerPrefix) {
			writeError(w, cperr.New(cperr.InvalidToken, nil))
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)

		claims, err := logic.VerifyLocal(r.Context(), g.keys, g.maxSize, g.clockSkew, token)
		if err != nil {
			writeError(w, err)
			return
		}

		if len(g.requiredScopes) > 0 && !anyScopeMatches(claims, g.requiredScopes) {
			writeError(w, cperr.New(cperr.PermissionDenied, nil))
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext recovers the verified claims stashed by ScopeGuard.
func ClaimsFromContext(ctx context.Context) (*jwtclaims.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwtclaims.Claims)
	return claims, ok
}

func anyScopeMatches(claims *jwtclaims.Claims, wanted []string) bool {
	for _, w := range wanted {
		if claims.HasScope(w) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, err error) {
	kind := cperr.KindOf(err)
	message := "An internal error occurred"
	if cerr, ok := cperr.As(err); ok {
		message = cerr.ClientMessage()
	}
	w.WriteHeader(cperr.HTTPStatus(kind))
	_, _ = w.Write([]byte(message))
}
