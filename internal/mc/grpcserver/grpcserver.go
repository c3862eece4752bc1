// Package grpcserver implements mcpb.MeetingControllerServiceServer: the
// RPC GC uses to propose a meeting assignment.
package grpcserver

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/mc/actor"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
	"github.com/meetmesh/control-plane/internal/pb/mcpb"
)

// Server backs the AssignMeetingWithMh RPC against the live ControllerActor.
// Capacity is checked against the configured ceilings before the actor is
// even asked to create the meeting, so a full controller rejects fast.
type Server struct {
	controller      *actor.ControllerActor
	maxMeetings     int
	maxParticipants int
	currentParticipants func() int
}

func New(controller *actor.ControllerActor, maxMeetings, maxParticipants int, currentParticipants func() int) *Server {
	return &Server{controller: controller, maxMeetings: maxMeetings, maxParticipants: maxParticipants, currentParticipants: currentParticipants}
}

func (s *Server) AssignMeetingWithMh(ctx context.Context, req *mcpb.AssignMeetingWithMhRequest) (*mcpb.AssignMeetingWithMhResponse, error) {
	status := s.controller.Status()
	if status.Draining {
		return reject(mcpb.RejectionDraining), nil
	}
	if status.MeetingCount >= s.maxMeetings || s.currentParticipants() >= s.maxParticipants {
		return reject(mcpb.RejectionAtCapacity), nil
	}

	handle, err := s.controller.Create(req.MeetingID)
	if err != nil {
		if cperr.KindOf(err) == cperr.Conflict {
			// Meeting already assigned here; treat the repeat proposal as
			// already accepted rather than rejecting an idempotent retry.
			if _, ok := s.controller.Get(req.MeetingID); ok {
				return &mcpb.AssignMeetingWithMhResponse{Accepted: true}, nil
			}
		}
		logx.Errorf("creating meeting %s: %v", req.MeetingID, err)
		return reject(mcpb.RejectionUnspecified), nil
	}

	rec := toMhRecord(req.Mhs)
	if err := handle.AdmitMh(ctx, rec); err != nil {
		if cperr.KindOf(err) == cperr.FencedOut {
			return reject(mcpb.RejectionUnhealthy), nil
		}
		logx.Errorf("admitting mh for meeting %s: %v", req.MeetingID, err)
		return reject(mcpb.RejectionUnspecified), nil
	}

	return &mcpb.AssignMeetingWithMhResponse{Accepted: true}, nil
}

func reject(reason mcpb.RejectionReason) *mcpb.AssignMeetingWithMhResponse {
	return &mcpb.AssignMeetingWithMhResponse{Accepted: false, RejectionReason: reason}
}

func toMhRecord(mhs []mcpb.MhAssignment) redisstore.MhRecord {
	var rec redisstore.MhRecord
	for _, m := range mhs {
		switch m.Role {
		case mcpb.RolePrimary:
			rec.PrimaryID, rec.PrimaryEndpoint = m.MhID, m.WebTransportEndpoint
		case mcpb.RoleBackup:
			rec.BackupID, rec.BackupEndpoint = m.MhID, m.WebTransportEndpoint
		}
	}
	return rec
}

var _ mcpb.MeetingControllerServiceServer = (*Server)(nil)
