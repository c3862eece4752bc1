package grpcserver

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/meetmesh/control-plane/internal/common/jwksclient"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

func newTestVerifier(t *testing.T) (*jwksclient.Verifier, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []jwksclient.Jwk{{Kty: "OKP", Crv: "Ed25519", Kid: "kid-1", Alg: "EdDSA", X: base64.RawURLEncoding.EncodeToString(pub)}},
		})
	}))
	t.Cleanup(server.Close)

	client := jwksclient.New(server.URL, time.Minute)
	return jwksclient.NewVerifier(client, jwtclaims.MaxSizeEdge, 5*time.Minute), priv
}

func signedToken(t *testing.T, priv ed25519.PrivateKey, scope string) string {
	t.Helper()
	claims := &jwtclaims.Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = "kid-1"
	signed, err := tok.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func noopHandler(called *bool) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) {
		*called = true
		return "ok", nil
	}
}

func TestAuthInterceptorRejectsMissingMetadata(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	called := false
	_, err := AuthInterceptor(verifier)(context.Background(), nil, &grpc.UnaryServerInfo{}, noopHandler(&called))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.False(t, called)
}

func TestAuthInterceptorAllowsValidTokenWithScope(t *testing.T) {
	verifier, priv := newTestVerifier(t)
	token := signedToken(t, priv, "service.assign.mc")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))

	called := false
	resp, err := AuthInterceptor(verifier)(ctx, nil, &grpc.UnaryServerInfo{}, noopHandler(&called))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestAuthInterceptorRejectsTokenMissingScope(t *testing.T) {
	verifier, priv := newTestVerifier(t)
	token := signedToken(t, priv, "meeting.join")
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))

	called := false
	_, err := AuthInterceptor(verifier)(ctx, nil, &grpc.UnaryServerInfo{}, noopHandler(&called))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.False(t, called)
}

func TestAuthInterceptorRejectsOversizedToken(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	huge := make([]byte, jwtclaims.MaxSizeEdge+1)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+string(huge)))

	called := false
	_, err := AuthInterceptor(verifier)(ctx, nil, &grpc.UnaryServerInfo{}, noopHandler(&called))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.False(t, called)
}

func TestAuthInterceptorRejectsInvalidToken(t *testing.T) {
	verifier, _ := newTestVerifier(t)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer not-a-jwt"))

	called := false
	_, err := AuthInterceptor(verifier)(ctx, nil, &grpc.UnaryServerInfo{}, noopHandler(&called))
	assert.NotEqual(t, codes.OK, status.Code(err))
	assert.False(t, called)
}
