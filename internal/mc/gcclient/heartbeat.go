package gcclient

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/pb/gcpb"
)

// Registrar owns MC's side of the worker registration lifecycle: register
// once at startup, then run a fast and a comprehensive heartbeat ticker
// for as long as the process lives.
type Registrar struct {
	client *Client
	self   gcpb.RegisterMcRequest
	fast   time.Duration
	comp   time.Duration
	stats  func() (meetings, participants int, healthStatus string)
}

func NewRegistrar(client *Client, self gcpb.RegisterMcRequest, fastInterval, comprehensiveInterval time.Duration, stats func() (int, int, string)) *Registrar {
	return &Registrar{client: client, self: self, fast: fastInterval, comp: comprehensiveInterval, stats: stats}
}

// Register performs the one-time startup registration; callers should
// treat failure here as fatal.
func (r *Registrar) Register(ctx context.Context) error {
	return r.client.RegisterMc(ctx, &r.self)
}

// Run drives both heartbeat tickers until ctx is cancelled.
func (r *Registrar) Run(ctx context.Context) {
	fastTicker := time.NewTicker(r.fast)
	defer fastTicker.Stop()
	compTicker := time.NewTicker(r.comp)
	defer compTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fastTicker.C:
			r.sendFast(ctx)
		case <-compTicker.C:
			r.sendComprehensive(ctx)
		}
	}
}

func (r *Registrar) sendFast(ctx context.Context) {
	meetings, participants, health := r.stats()
	req := &gcpb.FastHeartbeatRequest{
		ControllerID:        r.self.ControllerID,
		CurrentMeetings:     meetings,
		CurrentParticipants: participants,
		HealthStatus:        health,
	}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := r.client.FastHeartbeat(callCtx, req); err != nil {
		logx.Errorf("fast heartbeat to gc failed: %v", err)
	}
}

func (r *Registrar) sendComprehensive(ctx context.Context) {
	meetings, participants, health := r.stats()
	req := &gcpb.ComprehensiveHeartbeatRequest{
		ControllerID:        r.self.ControllerID,
		CurrentMeetings:     meetings,
		CurrentParticipants: participants,
		HealthStatus:        health,
	}
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := r.client.ComprehensiveHeartbeat(callCtx, req); err != nil {
		logx.Errorf("comprehensive heartbeat to gc failed: %v", err)
	}
}
