package gcpb

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceDesc is the hand-authored equivalent of what protoc-gen-go-grpc
// would emit for GlobalControllerService; see internal/pb/codec for why
// this system carries its own tiny JSON codec instead of real protobuf
// wire framing.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GlobalControllerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterMc", Handler: registerMcHandler},
		{MethodName: "FastHeartbeat", Handler: fastHeartbeatHandler},
		{MethodName: "ComprehensiveHeartbeat", Handler: comprehensiveHeartbeatHandler},
		{MethodName: "NotifyMeetingEnded", Handler: notifyMeetingEndedHandler},
		{MethodName: "RegisterMh", Handler: registerMhHandler},
		{MethodName: "SendLoadReport", Handler: sendLoadReportHandler},
	},
	Metadata: "gcpb.proto",
}

func registerMcHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RegisterMcRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlobalControllerServiceServer).RegisterMc(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/RegisterMc"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlobalControllerServiceServer).RegisterMc(ctx, req.(*RegisterMcRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fastHeartbeatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FastHeartbeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlobalControllerServiceServer).FastHeartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/FastHeartbeat"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlobalControllerServiceServer).FastHeartbeat(ctx, req.(*FastHeartbeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func comprehensiveHeartbeatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ComprehensiveHeartbeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlobalControllerServiceServer).ComprehensiveHeartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ComprehensiveHeartbeat"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlobalControllerServiceServer).ComprehensiveHeartbeat(ctx, req.(*ComprehensiveHeartbeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func notifyMeetingEndedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(NotifyMeetingEndedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlobalControllerServiceServer).NotifyMeetingEnded(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/NotifyMeetingEnded"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlobalControllerServiceServer).NotifyMeetingEnded(ctx, req.(*NotifyMeetingEndedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func registerMhHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RegisterMhRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlobalControllerServiceServer).RegisterMh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/RegisterMh"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlobalControllerServiceServer).RegisterMh(ctx, req.(*RegisterMhRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sendLoadReportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SendLoadReportRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GlobalControllerServiceServer).SendLoadReport(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SendLoadReport"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GlobalControllerServiceServer).SendLoadReport(ctx, req.(*SendLoadReportRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterGlobalControllerServiceServer registers srv on s, the hand-
// authored equivalent of the protoc-gen-go-grpc RegisterXxxServer function.
func RegisterGlobalControllerServiceServer(s *grpc.Server, srv GlobalControllerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
