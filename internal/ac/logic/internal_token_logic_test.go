package logic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

func TestIssueMeetingTokenRejectsCallerWithoutScope(t *testing.T) {
	svcCtx, _ := newTestServiceContext(t)
	l := NewInternalTokenLogic(t.Context(), svcCtx)
	_, err := l.IssueMeetingToken(&InternalTokenRequest{CallerScope: "meeting.join"})
	assert.Equal(t, cperr.PermissionDenied, cperr.KindOf(err))
}

func TestIssueMeetingTokenSucceedsForHost(t *testing.T) {
	svcCtx, mock := newTestServiceContext(t)
	expectActiveKey(t, mock, []byte("0123456789abcdef0123456789abcdef")[:32])

	l := NewInternalTokenLogic(t.Context(), svcCtx)
	resp, err := l.IssueMeetingToken(&InternalTokenRequest{
		CallerScope:     "internal:meeting-token",
		Subject:         "user-1",
		MeetingID:       "meeting-1",
		ParticipantType: jwtclaims.ParticipantMember,
		Role:            jwtclaims.RoleHost,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(svcCtx.Config.Auth.MeetingTokenTTL.Seconds()), resp.ExpiresIn)
}

func TestIssueMeetingTokenUsesGuestTTLForGuests(t *testing.T) {
	svcCtx, mock := newTestServiceContext(t)
	svcCtx.Config.Auth.MeetingTokenTTL = 4 * time.Hour
	svcCtx.Config.Auth.GuestTokenTTL = svcCtx.Config.Auth.MeetingTokenTTL / 2
	expectActiveKey(t, mock, []byte("0123456789abcdef0123456789abcdef")[:32])

	l := NewInternalTokenLogic(t.Context(), svcCtx)
	resp, err := l.IssueMeetingToken(&InternalTokenRequest{
		CallerScope:     "internal:meeting-token",
		Subject:         "guest-1",
		MeetingID:       "meeting-1",
		ParticipantType: jwtclaims.ParticipantGuest,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(svcCtx.Config.Auth.GuestTokenTTL.Seconds()), resp.ExpiresIn)
}

func TestHasScopeMatchesExactTokenInSpaceSeparatedList(t *testing.T) {
	assert.True(t, hasScope("meeting.join meeting.admit", "meeting.admit"))
	assert.True(t, hasScope("meeting.admit", "meeting.admit"))
	assert.False(t, hasScope("meeting.admitx", "meeting.admit"))
	assert.False(t, hasScope("", "meeting.admit"))
}
