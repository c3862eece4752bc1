package logic

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/gc/mcclient"
)

func TestMeMapsClaimsIncludingTimestamps(t *testing.T) {
	svcCtx, _ := newTestSvcCtx(t, mcclient.NewMock(), "tok")
	l := NewMeLogic(t.Context(), svcCtx)

	exp := time.Now().Add(time.Hour)
	iat := time.Now()
	claims := &jwtclaims.Claims{
		Subject: "user-1",
		Scope:   "meeting.join",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(iat),
		},
	}

	resp, err := l.Me(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", resp.Subject)
	assert.Equal(t, "meeting.join", resp.Scope)
	assert.Equal(t, exp.Unix(), resp.Exp)
	assert.Equal(t, iat.Unix(), resp.Iat)
}

func TestMeOmitsTimestampsWhenAbsent(t *testing.T) {
	svcCtx, _ := newTestSvcCtx(t, mcclient.NewMock(), "tok")
	l := NewMeLogic(t.Context(), svcCtx)

	claims := &jwtclaims.Claims{Subject: "user-1"}
	resp, err := l.Me(claims)
	require.NoError(t, err)
	assert.Zero(t, resp.Exp)
	assert.Zero(t, resp.Iat)
}
