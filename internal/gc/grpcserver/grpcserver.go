// Package grpcserver implements GlobalControllerService: MC/MH
// registration and heartbeat, authenticated by a bearer token in the
// authorization metadata validated against AC's JWKS.
package grpcserver

import (
	"context"

	"github.com/meetmesh/control-plane/internal/gc/model"
	"github.com/meetmesh/control-plane/internal/pb/gcpb"
)

type Server struct {
	repo *model.Repository
}

func New(repo *model.Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) RegisterMc(ctx context.Context, req *gcpb.RegisterMcRequest) (*gcpb.RegisterMcResponse, error) {
	err := s.repo.RegisterController(ctx, &model.MeetingController{
		ControllerID:    req.ControllerID,
		Region:          req.Region,
		GRPCEndpoint:    req.GRPCEndpoint,
		MaxMeetings:     req.MaxMeetings,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		return nil, err
	}
	return &gcpb.RegisterMcResponse{}, nil
}

func (s *Server) FastHeartbeat(ctx context.Context, req *gcpb.FastHeartbeatRequest) (*gcpb.FastHeartbeatResponse, error) {
	status := model.HealthStatus(req.HealthStatus)
	if status == "" {
		status = model.HealthHealthy
	}
	if err := s.repo.FastHeartbeat(ctx, req.ControllerID, req.CurrentMeetings, req.CurrentParticipants, status); err != nil {
		return nil, err
	}
	return &gcpb.FastHeartbeatResponse{}, nil
}

func (s *Server) ComprehensiveHeartbeat(ctx context.Context, req *gcpb.ComprehensiveHeartbeatRequest) (*gcpb.ComprehensiveHeartbeatResponse, error) {
	status := model.HealthStatus(req.HealthStatus)
	if status == "" {
		status = model.HealthHealthy
	}
	if err := s.repo.FastHeartbeat(ctx, req.ControllerID, req.CurrentMeetings, req.CurrentParticipants, status); err != nil {
		return nil, err
	}
	return &gcpb.ComprehensiveHeartbeatResponse{}, nil
}

func (s *Server) NotifyMeetingEnded(ctx context.Context, req *gcpb.NotifyMeetingEndedRequest) (*gcpb.NotifyMeetingEndedResponse, error) {
	// Idempotent; "no active row" is logged upstream by EndAssignment's
	// zero-rows-affected case, not treated as an error here.
	if err := s.repo.EndAssignment(ctx, req.MeetingID, req.Region); err != nil {
		return nil, err
	}
	return &gcpb.NotifyMeetingEndedResponse{}, nil
}

func (s *Server) RegisterMh(ctx context.Context, req *gcpb.RegisterMhRequest) (*gcpb.RegisterMhResponse, error) {
	err := s.repo.RegisterHandler(ctx, &model.MediaHandler{
		HandlerID:            req.HandlerID,
		Region:               req.Region,
		WebTransportEndpoint: req.WebTransportEndpoint,
		GRPCEndpoint:         req.GRPCEndpoint,
		MaxStreams:           req.MaxStreams,
	})
	if err != nil {
		return nil, err
	}
	return &gcpb.RegisterMhResponse{}, nil
}

func (s *Server) SendLoadReport(ctx context.Context, req *gcpb.SendLoadReportRequest) (*gcpb.SendLoadReportResponse, error) {
	status := model.HealthStatus(req.HealthStatus)
	if status == "" {
		status = model.HealthHealthy
	}
	err := s.repo.ComprehensiveHeartbeatHandler(ctx, req.HandlerID, req.CurrentStreams, status,
		req.CPUUsagePercent, req.MemoryUsagePercent, req.BandwidthUsagePercent)
	if err != nil {
		return nil, err
	}
	return &gcpb.SendLoadReportResponse{}, nil
}

var _ gcpb.GlobalControllerServiceServer = (*Server)(nil)
