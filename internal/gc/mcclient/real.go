package mcclient

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	_ "github.com/meetmesh/control-plane/internal/pb/codec"
	"github.com/meetmesh/control-plane/internal/pb/mcpb"
)

const (
	connectTimeout = 5 * time.Second
	callTimeout    = 10 * time.Second
)

// Real is the grpc-backed Capability. It dials lazily and caches one
// connection per endpoint, mirroring the teacher's zrpc.MustNewClient
// pool-per-endpoint usage without requiring the zrpc client descriptor.
type Real struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func NewReal() *Real {
	return &Real{conns: make(map[string]*grpc.ClientConn)}
}

func (r *Real) conn(endpoint string) (*grpc.ClientConn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[endpoint]; ok {
		return c, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	c, err := grpc.DialContext(ctx, endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
		grpc.WithBlock())
	if err != nil {
		return nil, err
	}
	r.conns[endpoint] = c
	return c, nil
}

func (r *Real) AssignMeetingWithMh(ctx context.Context, endpoint, meetingID string, mhs []MhAssignment, requestingGCID string) (AssignResult, error) {
	conn, err := r.conn(endpoint)
	if err != nil {
		return AssignResult{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req := &mcpb.AssignMeetingWithMhRequest{
		MeetingID:      meetingID,
		RequestingGcID: requestingGCID,
		Mhs:            toPbAssignments(mhs),
	}
	var resp mcpb.AssignMeetingWithMhResponse
	if err := conn.Invoke(callCtx, mcpb.MethodAssignMeetingWithMh, req, &resp); err != nil {
		return AssignResult{}, err
	}

	return AssignResult{
		Accepted:        resp.Accepted,
		RejectionReason: fromPbReason(resp.RejectionReason),
	}, nil
}

func toPbAssignments(mhs []MhAssignment) []mcpb.MhAssignment {
	out := make([]mcpb.MhAssignment, len(mhs))
	for i, m := range mhs {
		role := mcpb.RolePrimary
		if m.Role == RoleBackup {
			role = mcpb.RoleBackup
		}
		out[i] = mcpb.MhAssignment{MhID: m.MhID, WebTransportEndpoint: m.WebTransportEndpoint, Role: role}
	}
	return out
}

func fromPbReason(r mcpb.RejectionReason) RejectionReason {
	switch r {
	case mcpb.RejectionAtCapacity:
		return RejectionAtCapacity
	case mcpb.RejectionDraining:
		return RejectionDraining
	case mcpb.RejectionUnhealthy:
		return RejectionUnhealthy
	default:
		return RejectionUnspecified
	}
}
