package mcpb

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceDesc is the hand-authored equivalent of what protoc-gen-go-grpc
// would emit for MeetingControllerService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeetingControllerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AssignMeetingWithMh", Handler: assignMeetingWithMhHandler},
	},
	Metadata: "mcpb.proto",
}

func assignMeetingWithMhHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AssignMeetingWithMhRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MeetingControllerServiceServer).AssignMeetingWithMh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAssignMeetingWithMh}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MeetingControllerServiceServer).AssignMeetingWithMh(ctx, req.(*AssignMeetingWithMhRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterMeetingControllerServiceServer registers srv on s.
func RegisterMeetingControllerServiceServer(s *grpc.Server, srv MeetingControllerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
