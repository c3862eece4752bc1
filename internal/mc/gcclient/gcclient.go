// Package gcclient is MC's gRPC client to GC's registration and
// heartbeat surface (gcpb.GlobalControllerService), authenticated with
// the token internal/common/tokenmanager keeps fresh.
package gcclient

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/tokenmanager"
	_ "github.com/meetmesh/control-plane/internal/pb/codec"
	"github.com/meetmesh/control-plane/internal/pb/gcpb"
)

const (
	connectTimeout = 5 * time.Second
	callTimeout    = 10 * time.Second
)

type Client struct {
	conn   *grpc.ClientConn
	tokens *tokenmanager.Manager
}

func Dial(endpoint string, tokens *tokenmanager.Manager) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	conn, err := grpc.DialContext(ctx, endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
		grpc.WithBlock())
	if err != nil {
		return nil, cperr.New(cperr.ServiceUnavailable, err)
	}
	return &Client{conn: conn, tokens: tokens}, nil
}

func (c *Client) authContext(ctx context.Context) (context.Context, error) {
	token, ok := c.tokens.Current()
	if !ok {
		return nil, cperr.Newf(cperr.ServiceUnavailable, "no service token available")
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token.Value), nil
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	authed, err := c.authContext(ctx)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(authed, callTimeout)
	defer cancel()
	if err := c.conn.Invoke(callCtx, method, req, resp); err != nil {
		return cperr.New(cperr.Grpc, err)
	}
	return nil
}

// RegisterMc registers this MC with GC on startup.
func (c *Client) RegisterMc(ctx context.Context, req *gcpb.RegisterMcRequest) error {
	var resp gcpb.RegisterMcResponse
	return c.call(ctx, gcpb.MethodRegisterMc, req, &resp)
}

// FastHeartbeat sends the lightweight periodic liveness ping.
func (c *Client) FastHeartbeat(ctx context.Context, req *gcpb.FastHeartbeatRequest) error {
	var resp gcpb.FastHeartbeatResponse
	return c.call(ctx, gcpb.MethodFastHeartbeat, req, &resp)
}

// ComprehensiveHeartbeat sends the periodic load-bearing heartbeat that
// also reports current meeting/participant counts.
func (c *Client) ComprehensiveHeartbeat(ctx context.Context, req *gcpb.ComprehensiveHeartbeatRequest) error {
	var resp gcpb.ComprehensiveHeartbeatResponse
	return c.call(ctx, gcpb.MethodComprehensiveHeartbeat, req, &resp)
}

// NotifyMeetingEnded tells GC a meeting this MC owned has ended, so GC can
// retire the assignment without waiting for the cleanup sweep.
func (c *Client) NotifyMeetingEnded(ctx context.Context, req *gcpb.NotifyMeetingEndedRequest) error {
	var resp gcpb.NotifyMeetingEndedResponse
	return c.call(ctx, gcpb.MethodNotifyMeetingEnded, req, &resp)
}

func (c *Client) Close() error { return c.conn.Close() }
