// Package gcpb holds the hand-authored message and service shapes for
// GlobalControllerService, MC/MH → GC registration and heartbeat, stood
// in for protoc-gen-go output for the same reason as internal/pb/mcpb.
package gcpb

import "context"

const ServiceName = "gcpb.GlobalControllerService"

const (
	MethodRegisterMc             = "/" + ServiceName + "/RegisterMc"
	MethodFastHeartbeat          = "/" + ServiceName + "/FastHeartbeat"
	MethodComprehensiveHeartbeat = "/" + ServiceName + "/ComprehensiveHeartbeat"
	MethodNotifyMeetingEnded     = "/" + ServiceName + "/NotifyMeetingEnded"
	MethodRegisterMh             = "/" + ServiceName + "/RegisterMh"
	MethodSendLoadReport         = "/" + ServiceName + "/SendLoadReport"
)

type RegisterMcRequest struct {
	ControllerID         string `json:"controller_id"`
	Region               string `json:"region"`
	GRPCEndpoint         string `json:"grpc_endpoint"`
	WebTransportEndpoint string `json:"webtransport_endpoint"`
	MaxMeetings          int    `json:"max_meetings"`
	MaxParticipants      int    `json:"max_participants"`
}

type RegisterMcResponse struct{}

type FastHeartbeatRequest struct {
	ControllerID        string `json:"controller_id"`
	CurrentMeetings     int    `json:"current_meetings"`
	CurrentParticipants int    `json:"current_participants"`
	HealthStatus        string `json:"health_status"`
}

type FastHeartbeatResponse struct{}

type ComprehensiveHeartbeatRequest struct {
	ControllerID        string  `json:"controller_id"`
	CurrentMeetings     int     `json:"current_meetings"`
	CurrentParticipants int     `json:"current_participants"`
	HealthStatus        string  `json:"health_status"`
	CPUUsagePercent     float64 `json:"cpu_usage_percent"`
	MemoryUsagePercent  float64 `json:"memory_usage_percent"`
}

type ComprehensiveHeartbeatResponse struct{}

type NotifyMeetingEndedRequest struct {
	MeetingID string `json:"meeting_id"`
	Region    string `json:"region"`
}

type NotifyMeetingEndedResponse struct{}

type RegisterMhRequest struct {
	HandlerID            string `json:"handler_id"`
	Region               string `json:"region"`
	WebTransportEndpoint string `json:"webtransport_endpoint"`
	GRPCEndpoint         string `json:"grpc_endpoint"`
	MaxStreams           int    `json:"max_streams"`
}

type RegisterMhResponse struct{}

type SendLoadReportRequest struct {
	HandlerID             string  `json:"handler_id"`
	CurrentStreams        int     `json:"current_streams"`
	HealthStatus          string  `json:"health_status"`
	CPUUsagePercent       float64 `json:"cpu_usage_percent"`
	MemoryUsagePercent    float64 `json:"memory_usage_percent"`
	BandwidthUsagePercent float64 `json:"bandwidth_usage_percent"`
}

type SendLoadReportResponse struct{}

// GlobalControllerServiceServer is implemented by internal/gc/grpcserver.
type GlobalControllerServiceServer interface {
	RegisterMc(ctx context.Context, req *RegisterMcRequest) (*RegisterMcResponse, error)
	FastHeartbeat(ctx context.Context, req *FastHeartbeatRequest) (*FastHeartbeatResponse, error)
	ComprehensiveHeartbeat(ctx context.Context, req *ComprehensiveHeartbeatRequest) (*ComprehensiveHeartbeatResponse, error)
	NotifyMeetingEnded(ctx context.Context, req *NotifyMeetingEndedRequest) (*NotifyMeetingEndedResponse, error)
	RegisterMh(ctx context.Context, req *RegisterMhRequest) (*RegisterMhResponse, error)
	SendLoadReport(ctx context.Context, req *SendLoadReportRequest) (*SendLoadReportResponse, error)
}
