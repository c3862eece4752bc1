// Package mcpb holds the hand-authored message and service shapes for
// MeetingControllerService, stood in for protoc-gen-go output since
// generated wire framing is out of this system's scope.
package mcpb

import "context"

const ServiceName = "mcpb.MeetingControllerService"

const MethodAssignMeetingWithMh = "/" + ServiceName + "/AssignMeetingWithMh"

type MhRole int32

const (
	RolePrimary MhRole = iota
	RoleBackup
)

type MhAssignment struct {
	MhID                 string `json:"mh_id"`
	WebTransportEndpoint string `json:"webtransport_endpoint"`
	Role                 MhRole `json:"role"`
}

type RejectionReason int32

const (
	RejectionUnspecified RejectionReason = iota
	RejectionAtCapacity
	RejectionDraining
	RejectionUnhealthy
)

type AssignMeetingWithMhRequest struct {
	MeetingID      string         `json:"meeting_id"`
	Mhs            []MhAssignment `json:"mhs"`
	RequestingGcID string         `json:"requesting_gc_id"`
}

type AssignMeetingWithMhResponse struct {
	Accepted        bool            `json:"accepted"`
	RejectionReason RejectionReason `json:"rejection_reason"`
}

// MeetingControllerServiceServer is implemented by internal/mc/grpcserver
// and invoked over a real *grpc.ClientConn by internal/gc/mcclient's real
// implementation; that package's scripted mock does not use it.
type MeetingControllerServiceServer interface {
	AssignMeetingWithMh(ctx context.Context, req *AssignMeetingWithMhRequest) (*AssignMeetingWithMhResponse, error)
}
