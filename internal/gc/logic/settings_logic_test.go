package logic

import (
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/gc/mcclient"
)

func TestSettingsUpdateRejectsNonHostCaller(t *testing.T) {
	svcCtx, _ := newTestSvcCtx(t, mcclient.NewMock(), "tok")
	l := NewSettingsLogic(t.Context(), svcCtx)

	claims := &jwtclaims.Claims{Role: jwtclaims.RoleParticipant, MeetingID: "meeting-1"}
	_, err := l.Update(claims, "meeting-1", &SettingsRequest{})
	assert.Equal(t, cperr.PermissionDenied, cperr.KindOf(err))
}

func TestSettingsUpdateRejectsHostTokenScopedToADifferentMeeting(t *testing.T) {
	svcCtx, _ := newTestSvcCtx(t, mcclient.NewMock(), "tok")
	l := NewSettingsLogic(t.Context(), svcCtx)

	claims := &jwtclaims.Claims{Role: jwtclaims.RoleHost, MeetingID: "meeting-2"}
	_, err := l.Update(claims, "meeting-1", &SettingsRequest{})
	assert.Equal(t, cperr.PermissionDenied, cperr.KindOf(err))
}

func TestSettingsUpdateSucceedsForHostOfAnActiveMeeting(t *testing.T) {
	svcCtx, mock := newTestSvcCtx(t, mcclient.NewMock(), "tok")
	mock.ExpectQuery("FROM meeting_assignments WHERE meeting_id").WillReturnRows(
		sqlmock.NewRows(assignmentColumns).AddRow("meeting-1", "us-east", "mc-1", "gc-1", time.Now(), nil),
	)

	l := NewSettingsLogic(t.Context(), svcCtx)
	claims := &jwtclaims.Claims{Role: jwtclaims.RoleHost, MeetingID: "meeting-1"}
	resp, err := l.Update(claims, "meeting-1", &SettingsRequest{Settings: map[string]any{"mute_on_entry": true}})
	require.NoError(t, err)
	assert.True(t, resp.Applied)
}

func TestSettingsUpdateFailsWhenMeetingHasNoActiveAssignment(t *testing.T) {
	svcCtx, mock := newTestSvcCtx(t, mcclient.NewMock(), "tok")
	mock.ExpectQuery("FROM meeting_assignments WHERE meeting_id").WillReturnError(sql.ErrNoRows)

	l := NewSettingsLogic(t.Context(), svcCtx)
	claims := &jwtclaims.Claims{Role: jwtclaims.RoleHost, MeetingID: "meeting-1"}
	_, err := l.Update(claims, "meeting-1", &SettingsRequest{})
	assert.Error(t, err)
}
