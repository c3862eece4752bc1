package gcclient

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/tokenmanager"
	"github.com/meetmesh/control-plane/internal/pb/gcpb"
)

type stubGC struct {
	registerMcCalls int
	lastFastHB      *gcpb.FastHeartbeatRequest
	failAll         bool
}

func (s *stubGC) RegisterMc(ctx context.Context, req *gcpb.RegisterMcRequest) (*gcpb.RegisterMcResponse, error) {
	if s.failAll {
		return nil, assert.AnError
	}
	s.registerMcCalls++
	return &gcpb.RegisterMcResponse{}, nil
}

func (s *stubGC) FastHeartbeat(ctx context.Context, req *gcpb.FastHeartbeatRequest) (*gcpb.FastHeartbeatResponse, error) {
	if s.failAll {
		return nil, assert.AnError
	}
	s.lastFastHB = req
	return &gcpb.FastHeartbeatResponse{}, nil
}

func (s *stubGC) ComprehensiveHeartbeat(ctx context.Context, req *gcpb.ComprehensiveHeartbeatRequest) (*gcpb.ComprehensiveHeartbeatResponse, error) {
	if s.failAll {
		return nil, assert.AnError
	}
	return &gcpb.ComprehensiveHeartbeatResponse{}, nil
}

func (s *stubGC) NotifyMeetingEnded(ctx context.Context, req *gcpb.NotifyMeetingEndedRequest) (*gcpb.NotifyMeetingEndedResponse, error) {
	if s.failAll {
		return nil, assert.AnError
	}
	return &gcpb.NotifyMeetingEndedResponse{}, nil
}

func (s *stubGC) RegisterMh(ctx context.Context, req *gcpb.RegisterMhRequest) (*gcpb.RegisterMhResponse, error) {
	return &gcpb.RegisterMhResponse{}, nil
}

func (s *stubGC) SendLoadReport(ctx context.Context, req *gcpb.SendLoadReportRequest) (*gcpb.SendLoadReportResponse, error) {
	return &gcpb.SendLoadReportResponse{}, nil
}

// newTestServer starts a real in-process gRPC server speaking gcpb over
// the JSON codec, mirroring how cmd/gc wires gcpb.RegisterGlobalControllerServiceServer.
func newTestServer(t *testing.T, impl gcpb.GlobalControllerServiceServer) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	gcpb.RegisterGlobalControllerServiceServer(server, impl)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	return lis.Addr().String()
}

func newTestTokens(t *testing.T) *tokenmanager.Manager {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "svc-tok", "expires_in": 900})
	}))
	t.Cleanup(server.Close)

	tokens := tokenmanager.New(server.URL, "mc-client", "secret")
	require.NoError(t, tokens.Start(t.Context(), time.Second))
	return tokens
}

func TestRegisterMcSucceedsAgainstARealServer(t *testing.T) {
	impl := &stubGC{}
	addr := newTestServer(t, impl)
	tokens := newTestTokens(t)

	client, err := Dial(addr, tokens)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.RegisterMc(t.Context(), &gcpb.RegisterMcRequest{ControllerID: "mc-1", Region: "us-east"})
	require.NoError(t, err)
	assert.Equal(t, 1, impl.registerMcCalls)
}

func TestFastHeartbeatSendsCurrentCounts(t *testing.T) {
	impl := &stubGC{}
	addr := newTestServer(t, impl)
	tokens := newTestTokens(t)

	client, err := Dial(addr, tokens)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.FastHeartbeat(t.Context(), &gcpb.FastHeartbeatRequest{ControllerID: "mc-1", CurrentMeetings: 3, CurrentParticipants: 9, HealthStatus: "healthy"})
	require.NoError(t, err)
	require.NotNil(t, impl.lastFastHB)
	assert.Equal(t, 3, impl.lastFastHB.CurrentMeetings)
}

func TestCallWrapsServerErrorsAsGrpcKind(t *testing.T) {
	impl := &stubGC{failAll: true}
	addr := newTestServer(t, impl)
	tokens := newTestTokens(t)

	client, err := Dial(addr, tokens)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.RegisterMc(t.Context(), &gcpb.RegisterMcRequest{ControllerID: "mc-1"})
	assert.Equal(t, cperr.Grpc, cperr.KindOf(err))
}

func TestCallFailsWithoutAServiceToken(t *testing.T) {
	impl := &stubGC{}
	addr := newTestServer(t, impl)
	tokens := tokenmanager.New("http://unused.invalid", "mc-client", "secret")

	client, err := Dial(addr, tokens)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.RegisterMc(t.Context(), &gcpb.RegisterMcRequest{ControllerID: "mc-1"})
	assert.Equal(t, cperr.ServiceUnavailable, cperr.KindOf(err))
}
