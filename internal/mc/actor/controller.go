package actor

import (
	"context"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
	"github.com/meetmesh/control-plane/internal/mc/session"
)

// ControllerStatus is the snapshot ControllerActor.Status returns for
// metrics/health reporting.
type ControllerStatus struct {
	MeetingCount int
	Draining     bool
	PanicCount   int64
}

// ControllerActor is the per-process singleton owning every live meeting.
// Its map is guarded by a plain mutex rather than its
// own mailbox: unlike a MeetingActor, create/get/remove/status are all
// O(1) map operations with no suspension point, so a full actor loop
// would add nothing but latency.
type ControllerActor struct {
	mu         sync.Mutex
	meetings   map[string]*MeetingActorHandle
	draining   bool
	panicCount int64

	masterSecret []byte
	store        *redisstore.Store
	logger       logx.Logger
}

func NewController(masterSecret []byte, store *redisstore.Store) *ControllerActor {
	return &ControllerActor{
		meetings:     make(map[string]*MeetingActorHandle),
		masterSecret: masterSecret,
		store:        store,
	}
}

// Create spawns a new MeetingActor. Duplicate create, or create while
// draining, returns Conflict.
func (c *ControllerActor) Create(meetingID string) (*MeetingActorHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.draining {
		return nil, cperr.New(cperr.Conflict, nil)
	}
	if _, exists := c.meetings[meetingID]; exists {
		return nil, cperr.New(cperr.Conflict, nil)
	}

	key, err := session.DeriveMeetingKey(c.masterSecret, meetingID)
	if err != nil {
		return nil, err
	}

	generation, err := c.store.CurrentGeneration(context.Background(), meetingID)
	if err != nil {
		return nil, err
	}

	_, handle := newMeetingActor(meetingID, key, generation, c.store, c.onMeetingPanic)
	c.meetings[meetingID] = handle
	return handle, nil
}

func (c *ControllerActor) Get(meetingID string) (*MeetingActorHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.meetings[meetingID]
	return h, ok
}

// Remove ends the meeting and spawns a background drain so the caller,
// and the controller's own lock, are never blocked by a slow child
// shutdown.
func (c *ControllerActor) Remove(meetingID string) error {
	c.mu.Lock()
	h, ok := c.meetings[meetingID]
	if ok {
		delete(c.meetings, meetingID)
	}
	c.mu.Unlock()

	if !ok {
		return cperr.New(cperr.NotFound, nil)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.End(ctx); err != nil {
			logx.Errorf("draining meeting %s: %v", meetingID, err)
		}
	}()
	return nil
}

func (c *ControllerActor) Status() ControllerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ControllerStatus{
		MeetingCount: len(c.meetings),
		Draining:     c.draining,
		PanicCount:   c.panicCount,
	}
}

// Drain stops accepting new meetings and ends every existing one,
// waiting up to budget for them to finish before returning.
func (c *ControllerActor) Drain(budget time.Duration) {
	c.mu.Lock()
	c.draining = true
	ids := make([]string, 0, len(c.meetings))
	for id := range c.meetings {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	var wg sync.WaitGroup
	for _, id := range ids {
		h, ok := c.Get(id)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(h *MeetingActorHandle) {
			defer wg.Done()
			if err := h.End(ctx); err != nil {
				logx.Errorf("draining meeting %s: %v", h.MeetingID(), err)
			}
		}(h)
	}
	wg.Wait()

	c.mu.Lock()
	for _, id := range ids {
		delete(c.meetings, id)
	}
	c.mu.Unlock()
}

// onMeetingPanic is the supervisor's panic hook: record it, count it, and
// drop the meeting from the map. A panicked meeting is
// a migration candidate, out of scope here, so it is simply removed.
func (c *ControllerActor) onMeetingPanic(meetingID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panicCount++
	delete(c.meetings, meetingID)
}
