package actor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
)

func newTestMeeting(t *testing.T) (*meetingActor, *MeetingActorHandle) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.New(client)

	a, handle := newMeetingActor("meeting-1", []byte("0123456789abcdef0123456789abcdef"), 0, store, nil)
	t.Cleanup(handle.cancel)
	return a, handle
}

func TestJoinAndGetState(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	t.Run("a fresh participant joins and gets a binding", func(t *testing.T) {
		binding, err := handle.Join(ctx, "p-1", "u-1", "Alice", true)
		require.NoError(t, err)
		assert.NotEmpty(t, binding.Token)
		assert.NotEmpty(t, binding.CorrelationID)
	})

	t.Run("a duplicate join is a conflict", func(t *testing.T) {
		_, err := handle.Join(ctx, "p-1", "u-1", "Alice", true)
		assert.Equal(t, cperr.Conflict, cperr.KindOf(err))
	})

	t.Run("GetState reflects the joined participant", func(t *testing.T) {
		snap, err := handle.GetState(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Participants, 1)
		assert.Equal(t, "p-1", snap.Participants[0].ParticipantID)
		assert.True(t, snap.Participants[0].IsHost)
		assert.Equal(t, StatusConnected, snap.Participants[0].Status)
	})
}

func TestLeaveRemovesParticipant(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	_, err := handle.Join(ctx, "p-1", "u-1", "Alice", false)
	require.NoError(t, err)

	t.Run("leaving an unknown participant is not found", func(t *testing.T) {
		err := handle.Leave(ctx, "p-nonexistent")
		assert.Equal(t, cperr.NotFound, cperr.KindOf(err))
	})

	t.Run("leave removes the participant from state", func(t *testing.T) {
		require.NoError(t, handle.Leave(ctx, "p-1"))

		snap, err := handle.GetState(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Participants)
	})
}

func TestReconnectRotatesBinding(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	binding, err := handle.Join(ctx, "p-1", "u-1", "Alice", false)
	require.NoError(t, err)
	require.NoError(t, handle.Disconnected(ctx, "p-1"))

	t.Run("reconnect with the right user id and token succeeds and rotates the binding", func(t *testing.T) {
		fresh, participantID, err := handle.Reconnect(ctx, binding.CorrelationID, binding.Token, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "p-1", participantID)
		assert.NotEqual(t, binding.CorrelationID, fresh.CorrelationID)
		assert.NotEqual(t, binding.Token, fresh.Token)
	})

	t.Run("the old correlation id no longer works", func(t *testing.T) {
		_, _, err := handle.Reconnect(ctx, binding.CorrelationID, binding.Token, "u-1")
		assert.Equal(t, cperr.SessionBinding, cperr.KindOf(err))
	})

}

func TestReconnectWithUnknownCorrelationID(t *testing.T) {
	_, handle := newTestMeeting(t)
	_, _, err := handle.Reconnect(context.Background(), "no-such-correlation", "token", "u-1")
	assert.Equal(t, cperr.SessionBinding, cperr.KindOf(err))
}

func TestReconnectWithMismatchedUserID(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	binding, err := handle.Join(ctx, "p-1", "u-1", "Alice", false)
	require.NoError(t, err)
	require.NoError(t, handle.Disconnected(ctx, "p-1"))

	_, _, err = handle.Reconnect(ctx, binding.CorrelationID, binding.Token, "u-someone-else")
	assert.Equal(t, cperr.SessionBinding, cperr.KindOf(err))
}

func TestSignalFansOutExcludingSender(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	_, err := handle.Join(ctx, "p-1", "u-1", "Alice", false)
	require.NoError(t, err)
	_, err = handle.Join(ctx, "p-2", "u-2", "Bob", false)
	require.NoError(t, err)

	t1 := &fakeTransport{}
	t2 := &fakeTransport{}
	conn1 := newConnectionHandle(ctx, "p-1", "corr-1", t1, func(connectionDisconnected) {})
	conn2 := newConnectionHandle(ctx, "p-2", "corr-2", t2, func(connectionDisconnected) {})
	t.Cleanup(conn1.Close)
	t.Cleanup(conn2.Close)

	require.NoError(t, handle.Attach(ctx, "p-1", conn1))
	require.NoError(t, handle.Attach(ctx, "p-2", conn2))

	require.NoError(t, handle.Signal(ctx, "p-1", []byte(`{"sdp":"offer"}`)))

	waitUntil(t, time.Second, func() bool {
		sent, _ := t2.snapshot()
		return len(sent) >= 1
	})
	sent1, _ := t1.snapshot()
	sent2, _ := t2.snapshot()
	assert.Empty(t, sent1, "signal sender should not receive its own message")
	assert.NotEmpty(t, sent2, "the other participant should receive the signal")
}

func TestSelfMuteAndHostMute(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()
	_, err := handle.Join(ctx, "host-1", "u-host", "Hera", true)
	require.NoError(t, err)
	_, err = handle.Join(ctx, "p-1", "u-1", "Alice", false)
	require.NoError(t, err)

	muted := true
	require.NoError(t, handle.SelfMute(ctx, "p-1", &muted, nil))

	snap, _ := handle.GetState(ctx)
	participant := findParticipant(snap, "p-1")
	require.NotNil(t, participant)
	assert.True(t, participant.AudioSelfMuted)
	assert.False(t, participant.VideoSelfMuted)

	unmuted := false
	require.NoError(t, handle.HostMute(ctx, "host-1", "p-1", nil, &unmuted))
	snap, _ = handle.GetState(ctx)
	participant = findParticipant(snap, "p-1")
	require.NotNil(t, participant)
	assert.True(t, participant.AudioSelfMuted, "host-mute must not touch self-mute fields")
	assert.False(t, participant.VideoHostMuted)
}

// findParticipant locates a participant by id in a snapshot whose
// ordering is not guaranteed.
func findParticipant(snap StateSnapshot, participantID string) *Participant {
	for i := range snap.Participants {
		if snap.Participants[i].ParticipantID == participantID {
			return &snap.Participants[i]
		}
	}
	return nil
}

func TestHostMuteRejectsNonHostCaller(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()
	_, err := handle.Join(ctx, "p-1", "u-1", "Alice", false)
	require.NoError(t, err)
	_, err = handle.Join(ctx, "p-2", "u-2", "Bob", false)
	require.NoError(t, err)

	muted := true
	err = handle.HostMute(ctx, "p-1", "p-2", &muted, nil)
	assert.Equal(t, cperr.PermissionDenied, cperr.KindOf(err))
}

func TestMuteOnUnknownParticipant(t *testing.T) {
	_, handle := newTestMeeting(t)
	err := handle.SelfMute(context.Background(), "p-ghost", nil, nil)
	assert.Equal(t, cperr.NotFound, cperr.KindOf(err))
}

func TestEndMeetingRejectsFurtherJoins(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	require.NoError(t, handle.End(ctx))

	_, err := handle.Join(ctx, "p-1", "u-1", "Alice", false)
	assert.Equal(t, cperr.Conflict, cperr.KindOf(err))
}

func TestAdmitMhPersistsAssignment(t *testing.T) {
	_, handle := newTestMeeting(t)
	ctx := context.Background()

	err := handle.AdmitMh(ctx, redisstore.MhRecord{PrimaryID: "mh-1", PrimaryEndpoint: "10.0.0.1:443"})
	assert.NoError(t, err)
}
