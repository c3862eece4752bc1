package actor

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
)

func newTestController(t *testing.T) *ControllerActor {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.New(client)
	return NewController([]byte("0123456789abcdef0123456789abcdef"), store)
}

func TestControllerCreateAndGet(t *testing.T) {
	c := newTestController(t)

	handle, err := c.Create("meeting-1")
	require.NoError(t, err)
	assert.Equal(t, "meeting-1", handle.MeetingID())

	got, ok := c.Get("meeting-1")
	assert.True(t, ok)
	assert.Same(t, handle, got)

	status := c.Status()
	assert.Equal(t, 1, status.MeetingCount)
	assert.False(t, status.Draining)
}

func TestControllerCreateRejectsDuplicate(t *testing.T) {
	c := newTestController(t)

	_, err := c.Create("meeting-1")
	require.NoError(t, err)

	_, err = c.Create("meeting-1")
	assert.Equal(t, cperr.Conflict, cperr.KindOf(err))
}

func TestControllerGetMissingMeeting(t *testing.T) {
	c := newTestController(t)
	_, ok := c.Get("never-created")
	assert.False(t, ok)
}

func TestControllerRemove(t *testing.T) {
	c := newTestController(t)
	_, err := c.Create("meeting-1")
	require.NoError(t, err)

	require.NoError(t, c.Remove("meeting-1"))

	_, ok := c.Get("meeting-1")
	assert.False(t, ok, "removed meeting must no longer be reachable via Get")

	err = c.Remove("meeting-1")
	assert.Equal(t, cperr.NotFound, cperr.KindOf(err))
}

func TestControllerDrainRejectsNewMeetings(t *testing.T) {
	c := newTestController(t)
	_, err := c.Create("meeting-1")
	require.NoError(t, err)

	c.Drain(time.Second)

	status := c.Status()
	assert.True(t, status.Draining)
	assert.Equal(t, 0, status.MeetingCount)

	_, err = c.Create("meeting-2")
	assert.Equal(t, cperr.Conflict, cperr.KindOf(err))
}

func TestControllerOnMeetingPanicRemovesMeeting(t *testing.T) {
	c := newTestController(t)
	handle, err := c.Create("meeting-1")
	require.NoError(t, err)

	c.onMeetingPanic(handle.MeetingID())

	_, ok := c.Get("meeting-1")
	assert.False(t, ok)
	assert.EqualValues(t, 1, c.Status().PanicCount)
}

func TestControllerMeetingIDReusableAfterPanic(t *testing.T) {
	c := newTestController(t)
	handle, err := c.Create("meeting-1")
	require.NoError(t, err)

	c.onMeetingPanic(handle.MeetingID())

	_, err = c.Create("meeting-1")
	assert.NoError(t, err, "a panicked meeting id must be reusable")
}
