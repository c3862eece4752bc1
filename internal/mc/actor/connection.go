package actor

import (
	"context"
	"encoding/json"

	"github.com/zeromicro/go-zero/core/logx"
)

// OutboundMessage is what a ConnectionActor forwards to its WebTransport
// socket. Kind distinguishes a relayed signaling payload from a
// server-originated state update.
type OutboundMessage struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Transport is the minimal send/close surface a WebTransport signaling
// stream must offer; kept narrow so the actor package never imports a
// concrete transport library.
type Transport interface {
	Send(OutboundMessage) error
	Close() error
}

type connMessage struct {
	kind    string
	outbound OutboundMessage
	upward   connectionDisconnected
}

// ConnectionHandle is the parent-held reference to a running
// ConnectionActor: a bounded sender plus the child's cancellation token —
// the meeting actor never holds a pointer into the connection's own
// goroutine state.
type ConnectionHandle struct {
	inbox  chan connMessage
	cancel context.CancelFunc
}

func (h *ConnectionHandle) send(kind string, msg OutboundMessage) {
	select {
	case h.inbox <- connMessage{kind: kind, outbound: msg}:
	default:
		// Mailbox full: drop rather than block the sender; the drop is
		// counted.
		countDrop()
	}
}

func (h *ConnectionHandle) SendMessage(payload json.RawMessage) {
	h.send("message", OutboundMessage{Kind: "message", Payload: payload})
}

func (h *ConnectionHandle) SendStateUpdate(payload json.RawMessage) {
	h.send("state_update", OutboundMessage{Kind: "state_update", Payload: payload})
}

func (h *ConnectionHandle) Ping() {
	h.send("ping", OutboundMessage{Kind: "ping"})
}

func (h *ConnectionHandle) Close() {
	h.cancel()
}

// connectionActor owns one WebTransport connection's send loop. It runs
// until its context is cancelled (by the parent, via Close) or the
// transport reports a send failure, at which point it reports upward via
// onDisconnect and exits; it never calls back into the meeting directly.
type connectionActor struct {
	participantID string
	correlationID string
	transport     Transport
	inbox         chan connMessage
	monitor       *MailboxMonitor
	onDisconnect  func(connectionDisconnected)
	logger        logx.Logger
}

const connectionMailboxSize = 256

// NewConnection spawns a ConnectionActor for the given participant's
// transport, wired to report upward to meeting on transport failure.
func NewConnection(ctx context.Context, meeting *MeetingActorHandle, participantID, correlationID string, transport Transport) *ConnectionHandle {
	return newConnectionHandle(ctx, participantID, correlationID, transport, meeting.notifyConnectionGone)
}

func newConnectionHandle(ctx context.Context, participantID, correlationID string, transport Transport, onDisconnect func(connectionDisconnected)) *ConnectionHandle {
	childCtx, cancel := context.WithCancel(ctx)
	inbox := make(chan connMessage, connectionMailboxSize)

	a := &connectionActor{
		participantID: participantID,
		correlationID: correlationID,
		transport:     transport,
		inbox:         inbox,
		monitor:       NewMailboxMonitor(ConnectionMailbox, "connection:"+participantID),
		onDisconnect:  onDisconnect,
	}
	go a.run(childCtx)

	return &ConnectionHandle{inbox: inbox, cancel: cancel}
}

func (a *connectionActor) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("connection actor %s panicked: %v", a.participantID, r)
		}
		a.onDisconnect(connectionDisconnected{participantID: a.participantID, correlationID: a.correlationID})
		_ = a.transport.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.inbox:
			a.monitor.Observe(len(a.inbox))
			if err := a.transport.Send(msg.outbound); err != nil {
				return
			}
		}
	}
}
