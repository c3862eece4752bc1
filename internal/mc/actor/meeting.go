package actor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
	"github.com/meetmesh/control-plane/internal/mc/session"
)

const (
	meetingMailboxSize = 1024
	disconnectGrace    = 30 * time.Second
	sweepInterval      = 5 * time.Second
)

type mailboxEnvelope struct {
	join         *joinRequest
	admitMh      *admitMhRequest
	leave        *leaveRequest
	disconnected *disconnectedRequest
	reconnect    *reconnectRequest
	signal       *signalRequest
	selfMute     *selfMuteRequest
	hostMute     *hostMuteRequest
	end          *endMeetingRequest
	getState     *getStateRequest
	attach       *attachRequest
	connGone     *connectionDisconnected
}

// MeetingActorHandle is the parent-held reference to a running
// MeetingActor: a bounded sender plus the child's cancellation token.
// ControllerActor never reaches into the meeting's own state directly.
type MeetingActorHandle struct {
	meetingID string
	inbox     chan mailboxEnvelope
	cancel    context.CancelFunc
	done      chan struct{}
}

func (h *MeetingActorHandle) MeetingID() string { return h.meetingID }

func (h *MeetingActorHandle) enqueue(env mailboxEnvelope) error {
	select {
	case h.inbox <- env:
		return nil
	default:
		countDrop()
		return cperr.New(cperr.Internal, errChannelSendFailed)
	}
}

var errChannelSendFailed = cperr.Newf(cperr.Internal, "channel send failed")

func (h *MeetingActorHandle) Join(ctx context.Context, participantID, userID, displayName string, isHost bool) (*session.Binding, error) {
	reply := make(chan joinResult, 1)
	if err := h.enqueue(mailboxEnvelope{join: &joinRequest{participantID: participantID, userID: userID, displayName: displayName, isHost: isHost, reply: reply}}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.binding, res.err
	case <-ctx.Done():
		return nil, cperr.New(cperr.Internal, ctx.Err())
	}
}

// AdmitMh records the MH assignment GC handed this meeting at creation
// time, persisting it to the fenced Redis store.
func (h *MeetingActorHandle) AdmitMh(ctx context.Context, mh redisstore.MhRecord) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{admitMh: &admitMhRequest{mh: mh, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) Leave(ctx context.Context, participantID string) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{leave: &leaveRequest{participantID: participantID, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) Disconnected(ctx context.Context, participantID string) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{disconnected: &disconnectedRequest{participantID: participantID, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) Reconnect(ctx context.Context, correlationID, presentedToken, userID string) (*session.Binding, string, error) {
	reply := make(chan reconnectResult, 1)
	if err := h.enqueue(mailboxEnvelope{reconnect: &reconnectRequest{correlationID: correlationID, presentedToken: presentedToken, userID: userID, reply: reply}}); err != nil {
		return nil, "", err
	}
	select {
	case res := <-reply:
		return res.binding, res.participantID, res.err
	case <-ctx.Done():
		return nil, "", cperr.New(cperr.Internal, ctx.Err())
	}
}

func (h *MeetingActorHandle) Attach(ctx context.Context, participantID string, conn *ConnectionHandle) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{attach: &attachRequest{participantID: participantID, conn: conn, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) Signal(ctx context.Context, fromParticipantID string, payload []byte) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{signal: &signalRequest{fromParticipantID: fromParticipantID, payload: payload, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) SelfMute(ctx context.Context, participantID string, audio, video *bool) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{selfMute: &selfMuteRequest{participantID: participantID, audioMuted: audio, videoMuted: video, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) HostMute(ctx context.Context, callerParticipantID, targetParticipantID string, audio, video *bool) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{hostMute: &hostMuteRequest{callerParticipantID: callerParticipantID, targetParticipantID: targetParticipantID, audioMuted: audio, videoMuted: video, reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

func (h *MeetingActorHandle) End(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := h.enqueue(mailboxEnvelope{end: &endMeetingRequest{reply: reply}}); err != nil {
		return err
	}
	return waitErr(ctx, reply)
}

// notifyConnectionGone is the fire-and-forget upward path a
// ConnectionActor uses to report its own transport failure. It is
// best-effort: a full mailbox drops it, same as any other enqueue, since
// the connection is already dead and cannot wait.
func (h *MeetingActorHandle) notifyConnectionGone(msg connectionDisconnected) {
	select {
	case h.inbox <- mailboxEnvelope{connGone: &msg}:
	default:
		countDrop()
	}
}

func (h *MeetingActorHandle) GetState(ctx context.Context) (StateSnapshot, error) {
	reply := make(chan StateSnapshot, 1)
	if err := h.enqueue(mailboxEnvelope{getState: &getStateRequest{reply: reply}}); err != nil {
		return StateSnapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return StateSnapshot{}, cperr.New(cperr.Internal, ctx.Err())
	}
}

func waitErr(ctx context.Context, reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return cperr.New(cperr.Internal, ctx.Err())
	}
}

// meetingActor is the single goroutine that owns all mutable state for one
// meeting. Every field below is touched only from run's goroutine; callers
// interact exclusively through MeetingActorHandle's mailbox sends, which
// stands in for a lock.
type meetingActor struct {
	meetingID       string
	createdAt       time.Time
	generation      int64
	meetingKey      []byte
	participants    map[string]*Participant
	correlationToID map[string]string
	bindings        map[string]*session.Binding
	shuttingDown    bool

	store    *redisstore.Store
	inbox    chan mailboxEnvelope
	monitor  *MailboxMonitor
	onPanic  func(meetingID string)
	logger   logx.Logger
}

func newMeetingActor(meetingID string, meetingKey []byte, generation int64, store *redisstore.Store, onPanic func(string)) (*meetingActor, *MeetingActorHandle) {
	inbox := make(chan mailboxEnvelope, meetingMailboxSize)
	a := &meetingActor{
		meetingID:       meetingID,
		createdAt:       time.Now(),
		generation:      generation,
		meetingKey:      meetingKey,
		participants:    make(map[string]*Participant),
		correlationToID: make(map[string]string),
		bindings:        make(map[string]*session.Binding),
		store:           store,
		inbox:           inbox,
		monitor:         NewMailboxMonitor(MeetingMailbox, "meeting:"+meetingID),
		onPanic:         onPanic,
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &MeetingActorHandle{meetingID: meetingID, inbox: inbox, cancel: cancel, done: make(chan struct{})}
	go a.run(ctx, handle.done)
	return a, handle
}

func (a *meetingActor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("meeting actor %s panicked: %v", a.meetingID, r)
			if a.onPanic != nil {
				a.onPanic(a.meetingID)
			}
		}
	}()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return
		case <-ticker.C:
			a.sweepDisconnected()
		case env := <-a.inbox:
			a.monitor.Observe(len(a.inbox))
			a.handle(env)
		}
	}
}

func (a *meetingActor) handle(env mailboxEnvelope) {
	switch {
	case env.join != nil:
		a.onJoin(env.join)
	case env.admitMh != nil:
		a.onAdmitMh(env.admitMh)
	case env.leave != nil:
		a.onLeave(env.leave)
	case env.disconnected != nil:
		a.onDisconnected(env.disconnected)
	case env.reconnect != nil:
		a.onReconnect(env.reconnect)
	case env.attach != nil:
		a.onAttach(env.attach)
	case env.signal != nil:
		a.onSignal(env.signal)
	case env.selfMute != nil:
		a.onSelfMute(env.selfMute)
	case env.hostMute != nil:
		a.onHostMute(env.hostMute)
	case env.end != nil:
		a.onEnd(env.end)
	case env.getState != nil:
		a.onGetState(env.getState)
	case env.connGone != nil:
		a.onConnectionGone(*env.connGone)
	}
}

func (a *meetingActor) nextGeneration() int64 {
	a.generation++
	return a.generation
}

func (a *meetingActor) onJoin(req *joinRequest) {
	if a.shuttingDown {
		req.reply <- joinResult{err: cperr.New(cperr.Conflict, nil)}
		return
	}
	if _, exists := a.participants[req.participantID]; exists {
		req.reply <- joinResult{err: cperr.New(cperr.Conflict, nil)}
		return
	}

	binding, err := session.NewBinding(a.meetingKey, a.meetingID, req.participantID, req.userID)
	if err != nil {
		req.reply <- joinResult{err: err}
		return
	}

	a.participants[req.participantID] = &Participant{
		ParticipantID: req.participantID,
		UserID:        req.userID,
		DisplayName:   req.displayName,
		CorrelationID: binding.CorrelationID,
		Status:        StatusConnected,
		IsHost:        req.isHost,
	}
	a.correlationToID[binding.CorrelationID] = req.participantID
	a.bindings[binding.CorrelationID] = binding

	a.broadcastState(req.participantID, "participant_joined")
	req.reply <- joinResult{binding: binding}
}

func (a *meetingActor) onAdmitMh(req *admitMhRequest) {
	if err := a.store.WriteMh(context.Background(), a.meetingID, a.nextGeneration(), req.mh); err != nil {
		if cperr.KindOf(err) == cperr.FencedOut {
			a.shuttingDown = true
		}
		req.reply <- err
		return
	}
	req.reply <- nil
}

func (a *meetingActor) onAttach(req *attachRequest) {
	p, ok := a.participants[req.participantID]
	if !ok {
		req.reply <- cperr.New(cperr.NotFound, nil)
		return
	}
	p.Conn = req.conn
	p.Status = StatusConnected
	p.DisconnectedAt = time.Time{}
	req.reply <- nil
}

func (a *meetingActor) onLeave(req *leaveRequest) {
	p, ok := a.participants[req.participantID]
	if !ok {
		req.reply <- cperr.New(cperr.NotFound, nil)
		return
	}
	a.removeParticipant(p)
	req.reply <- nil
}

func (a *meetingActor) onDisconnected(req *disconnectedRequest) {
	p, ok := a.participants[req.participantID]
	if !ok {
		req.reply <- cperr.New(cperr.NotFound, nil)
		return
	}
	p.Status = StatusDisconnected
	p.DisconnectedAt = time.Now()
	p.Conn = nil
	a.broadcastState(req.participantID, "participant_disconnected")
	req.reply <- nil
}

// onConnectionGone is the upward message a ConnectionActor sends on
// transport failure; it avoids a back-reference into the actor and reuses
// the same disconnect transition as an explicit DisconnectedRequest.
func (a *meetingActor) onConnectionGone(msg connectionDisconnected) {
	p, ok := a.participants[msg.participantID]
	if !ok || p.CorrelationID != msg.correlationID {
		return
	}
	if p.Status == StatusConnected {
		p.Status = StatusDisconnected
		p.DisconnectedAt = time.Now()
		p.Conn = nil
		a.broadcastState(msg.participantID, "participant_disconnected")
	}
}

func (a *meetingActor) onReconnect(req *reconnectRequest) {
	binding, ok := a.bindings[req.correlationID]
	if !ok {
		req.reply <- reconnectResult{err: cperr.New(cperr.SessionBinding, session.ErrSessionNotFound)}
		return
	}
	if binding.UserID != req.userID {
		req.reply <- reconnectResult{err: cperr.New(cperr.SessionBinding, session.ErrUserIDMismatch)}
		return
	}
	if err := session.Verify(a.meetingKey, a.meetingID, binding, req.presentedToken, time.Now()); err != nil {
		req.reply <- reconnectResult{err: err}
		return
	}

	participantID := a.correlationToID[req.correlationID]
	p, ok := a.participants[participantID]
	if !ok {
		req.reply <- reconnectResult{err: cperr.New(cperr.SessionBinding, session.ErrSessionNotFound)}
		return
	}

	// Rotate: discard the old binding and issue a fresh one, atomically
	// within this single-threaded handler.
	delete(a.bindings, req.correlationID)
	delete(a.correlationToID, req.correlationID)

	fresh, err := session.NewBinding(a.meetingKey, a.meetingID, participantID, req.userID)
	if err != nil {
		req.reply <- reconnectResult{err: err}
		return
	}
	a.bindings[fresh.CorrelationID] = fresh
	a.correlationToID[fresh.CorrelationID] = participantID
	p.CorrelationID = fresh.CorrelationID
	p.Status = StatusConnected
	p.DisconnectedAt = time.Time{}

	a.broadcastState(participantID, "participant_reconnected")
	req.reply <- reconnectResult{binding: fresh, participantID: participantID}
}

func (a *meetingActor) onSignal(req *signalRequest) {
	if _, ok := a.participants[req.fromParticipantID]; !ok {
		req.reply <- cperr.New(cperr.NotFound, nil)
		return
	}
	for id, p := range a.participants {
		if id == req.fromParticipantID || p.Conn == nil {
			continue
		}
		p.Conn.SendMessage(json.RawMessage(req.payload))
	}
	req.reply <- nil
}

func (a *meetingActor) onSelfMute(req *selfMuteRequest) {
	p, ok := a.participants[req.participantID]
	if !ok {
		req.reply <- cperr.New(cperr.NotFound, nil)
		return
	}
	p.AudioSelfMuted = boolOrKeep(p.AudioSelfMuted, req.audioMuted)
	p.VideoSelfMuted = boolOrKeep(p.VideoSelfMuted, req.videoMuted)
	a.broadcastState(req.participantID, "mute_changed")
	req.reply <- nil
}

func (a *meetingActor) onHostMute(req *hostMuteRequest) {
	caller, ok := a.participants[req.callerParticipantID]
	if !ok || !caller.IsHost {
		req.reply <- cperr.New(cperr.PermissionDenied, nil)
		return
	}

	p, ok := a.participants[req.targetParticipantID]
	if !ok {
		req.reply <- cperr.New(cperr.NotFound, nil)
		return
	}
	p.AudioHostMuted = boolOrKeep(p.AudioHostMuted, req.audioMuted)
	p.VideoHostMuted = boolOrKeep(p.VideoHostMuted, req.videoMuted)
	a.broadcastState(req.targetParticipantID, "mute_changed")
	req.reply <- nil
}

func (a *meetingActor) onEnd(req *endMeetingRequest) {
	a.shuttingDown = true
	for _, p := range a.participants {
		if p.Conn != nil {
			p.Conn.Close()
		}
	}
	if err := a.store.Delete(context.Background(), a.meetingID, a.nextGeneration()); err != nil && cperr.KindOf(err) != cperr.FencedOut {
		req.reply <- err
		return
	}
	req.reply <- nil
}

func (a *meetingActor) onGetState(req *getStateRequest) {
	snapshot := StateSnapshot{
		MeetingID:    a.meetingID,
		CreatedAt:    a.createdAt,
		Generation:   a.generation,
		ShuttingDown: a.shuttingDown,
	}
	for _, p := range a.participants {
		snapshot.Participants = append(snapshot.Participants, *p)
	}
	req.reply <- snapshot
}

// sweepDisconnected runs the grace-period sweep: participants disconnected
// for longer than disconnectGrace are removed entirely.
func (a *meetingActor) sweepDisconnected() {
	now := time.Now()
	for id, p := range a.participants {
		if p.Status == StatusDisconnected && !p.DisconnectedAt.IsZero() && now.Sub(p.DisconnectedAt) >= disconnectGrace {
			delete(a.participants, id)
			delete(a.correlationToID, p.CorrelationID)
			delete(a.bindings, p.CorrelationID)
		}
	}
}

func (a *meetingActor) removeParticipant(p *Participant) {
	if p.Conn != nil {
		p.Conn.Close()
	}
	delete(a.participants, p.ParticipantID)
	delete(a.correlationToID, p.CorrelationID)
	delete(a.bindings, p.CorrelationID)
	a.broadcastState(p.ParticipantID, "participant_left")
}

// broadcastState fans a state-transition notice out to every other
// participant's connection, excluding the one that caused it.
func (a *meetingActor) broadcastState(sourceParticipantID, reason string) {
	payload, err := json.Marshal(map[string]string{"reason": reason, "participant_id": sourceParticipantID})
	if err != nil {
		return
	}
	for id, p := range a.participants {
		if id == sourceParticipantID || p.Conn == nil {
			continue
		}
		p.Conn.SendStateUpdate(payload)
	}
}

func (a *meetingActor) shutdown() {
	for _, p := range a.participants {
		if p.Conn != nil {
			p.Conn.Close()
		}
	}
}
