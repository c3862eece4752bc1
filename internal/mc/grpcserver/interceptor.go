package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwksclient"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

const assignScope = "service.assign.mc"

// AuthInterceptor enforces that every MeetingControllerService RPC (only
// AssignMeetingWithMh today) requires a bearer token carrying the
// service.assign.mc scope, issued to GC by AC's client-credentials flow.
func AuthInterceptor(verifier *jwksclient.Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing authorization metadata")
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization metadata")
		}
		token := strings.TrimPrefix(values[0], "Bearer ")
		if len(token) > jwtclaims.MaxSizeEdge {
			return nil, status.Error(codes.Unauthenticated, "token too large")
		}

		claims, err := verifier.Verify(ctx, token)
		if err != nil {
			return nil, status.Error(cperr.GRPCCode(cperr.KindOf(err)), "The access token is invalid or expired")
		}
		if !claims.HasScope(assignScope) {
			return nil, status.Error(codes.PermissionDenied, "missing required scope")
		}

		return handler(ctx, req)
	}
}
