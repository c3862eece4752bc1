// Package mcclient models the GC → MC AssignMeetingWithMh RPC as a
// capability interface: the placement core depends only on this
// interface, never on a concrete transport, so tests can swap in a
// scripted mock.
package mcclient

import "context"

type MhRole string

const (
	RolePrimary MhRole = "primary"
	RoleBackup  MhRole = "backup"
)

type MhAssignment struct {
	MhID                 string
	WebTransportEndpoint string
	Role                 MhRole
}

type RejectionReason string

const (
	RejectionUnspecified RejectionReason = "unspecified"
	RejectionAtCapacity  RejectionReason = "at_capacity"
	RejectionDraining    RejectionReason = "draining"
	RejectionUnhealthy   RejectionReason = "unhealthy"
)

type AssignResult struct {
	Accepted        bool
	RejectionReason RejectionReason
}

// Capability is the MC-side surface GC's placement core needs. The real
// implementation dials the MC's gRPC endpoint; the mock plays back a fixed
// queue of outcomes for tests.
type Capability interface {
	AssignMeetingWithMh(ctx context.Context, endpoint, meetingID string, mhs []MhAssignment, requestingGCID string) (AssignResult, error)
}
