package actor

import (
	"time"

	"github.com/meetmesh/control-plane/internal/mc/redisstore"
	"github.com/meetmesh/control-plane/internal/mc/session"
)

// Participant mirrors the in-memory participant entity held by a meeting.
// It is owned exclusively by its MeetingActor; callers only ever see
// copies returned from GetState.
type Participant struct {
	ParticipantID  string
	UserID         string
	DisplayName    string
	CorrelationID  string
	Conn           *ConnectionHandle
	Status         ParticipantStatus
	DisconnectedAt time.Time
	AudioSelfMuted bool
	VideoSelfMuted bool
	AudioHostMuted bool
	VideoHostMuted bool
	IsHost         bool
}

type ParticipantStatus int

const (
	StatusConnected ParticipantStatus = iota
	StatusDisconnected
)

// StateSnapshot is the external, copy-safe view of a meeting returned by
// GetState; it never aliases the actor's own maps.
type StateSnapshot struct {
	MeetingID   string
	CreatedAt   time.Time
	Generation  int64
	Participants []Participant
	ShuttingDown bool
}

// requests, one struct per MeetingActor operation. Every request carries
// its own reply channel; the actor never blocks on a caller that stops
// listening because replies are always buffered 1.

type joinRequest struct {
	participantID string
	userID        string
	displayName   string
	isHost        bool
	reply         chan joinResult
}

type joinResult struct {
	binding *session.Binding
	err     error
}

// admitMhRequest records the MH assignment GC handed this meeting at
// creation time.
type admitMhRequest struct {
	mh    redisstore.MhRecord
	reply chan error
}

type leaveRequest struct {
	participantID string
	reply         chan error
}

type disconnectedRequest struct {
	participantID string
	reply         chan error
}

type reconnectRequest struct {
	correlationID string
	presentedToken string
	userID        string
	reply         chan reconnectResult
}

type reconnectResult struct {
	binding *session.Binding
	participantID string
	err     error
}

type signalRequest struct {
	fromParticipantID string
	payload           []byte
	reply             chan error
}

type selfMuteRequest struct {
	participantID string
	audioMuted    *bool
	videoMuted    *bool
	reply         chan error
}

type hostMuteRequest struct {
	callerParticipantID string
	targetParticipantID string
	audioMuted          *bool
	videoMuted          *bool
	reply               chan error
}

type endMeetingRequest struct {
	reply chan error
}

type getStateRequest struct {
	reply chan StateSnapshot
}

// attachRequest rebinds a newly spawned ConnectionActor to an existing
// participant, used both on initial join and after a reconnect rotation.
type attachRequest struct {
	participantID string
	conn          *ConnectionHandle
	reply         chan error
}

// connectionDisconnected is sent upward by a ConnectionActor when its
// transport drops; it carries no reply, keeping the actor graph acyclic
// (messages, not back-references).
type connectionDisconnected struct {
	participantID string
	correlationID string
}

func boolOrKeep(current bool, want *bool) bool {
	if want == nil {
		return current
	}
	return *want
}
