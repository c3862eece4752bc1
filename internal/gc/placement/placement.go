// Package placement implements GC's assignment core: a weighted, fenced,
// race-safe mapping of (meeting_id, region) to one MeetingController.
package placement

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/gc/mcclient"
	"github.com/meetmesh/control-plane/internal/gc/model"
)

type Config struct {
	StalenessThreshold time.Duration
	MaxCandidates      int
	MaxAssignAttempts  int
}

type Engine struct {
	repo   *model.Repository
	mc     mcclient.Capability
	cfg    Config
	gcID   string
	logger logx.Logger
}

func NewEngine(repo *model.Repository, mc mcclient.Capability, cfg Config, gcID string) *Engine {
	return &Engine{repo: repo, mc: mc, cfg: cfg, gcID: gcID, logger: logx.WithContext(context.Background())}
}

// AssignMeeting runs a strict ordering: probe for a
// healthy existing assignment; otherwise select MHs, then repeatedly
// propose to a weighted-random MC candidate until one accepts or the
// attempt budget is exhausted. The MC RPC always happens before the DB
// write so the DB never points at an MC that refused the load.
func (e *Engine) AssignMeeting(ctx context.Context, meetingID, region string) (*model.MeetingAssignment, error) {
	freshSince := time.Now().Add(-e.cfg.StalenessThreshold)

	if existing, err := e.repo.HealthyAssignment(ctx, meetingID, region, freshSince); err == nil {
		return existing, nil
	} else if cperr.KindOf(err) != cperr.NotFound {
		return nil, err
	}

	mhs, err := e.selectMhs(ctx, region)
	if err != nil {
		return nil, err
	}

	tried := make(map[string]bool)
	var lastReason mcclient.RejectionReason

	for attempt := 0; attempt < e.cfg.MaxAssignAttempts; attempt++ {
		candidates, err := e.repo.HealthyControllers(ctx, region, e.cfg.MaxCandidates)
		if err != nil {
			return nil, err
		}
		candidates = excludeTried(candidates, tried)
		if len(candidates) == 0 {
			return nil, exhaustionError(lastReason)
		}

		idx := weightedPick(loadRatiosOf(candidates))
		candidate := candidates[idx]

		result, err := e.mc.AssignMeetingWithMh(ctx, candidate.GRPCEndpoint, meetingID, mhs, e.gcID)
		if err != nil {
			e.logger.Errorf("assign rpc to %s failed: %v", candidate.ControllerID, err)
			tried[candidate.ControllerID] = true
			continue
		}
		if !result.Accepted {
			lastReason = result.RejectionReason
			tried[candidate.ControllerID] = true
			continue
		}

		row, ok, err := e.repo.UpsertAssignment(ctx, meetingID, region, candidate.ControllerID, e.gcID, freshSince)
		if err != nil {
			return nil, err
		}
		if ok {
			return row, nil
		}

		// Race loss: another GC already won with a healthy controller.
		// Re-read and return the winner, without re-RPC'ing.
		return e.repo.AnyActiveAssignment(ctx, meetingID, region)
	}

	return nil, exhaustionError(lastReason)
}

func (e *Engine) selectMhs(ctx context.Context, region string) ([]mcclient.MhAssignment, error) {
	handlers, err := e.repo.HealthyHandlers(ctx, region, e.cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}
	if len(handlers) == 0 {
		return nil, cperr.Newf(cperr.ServiceUnavailable, "no media handlers available in %s", region)
	}

	ratios := make([]float64, len(handlers))
	for i, h := range handlers {
		ratios[i] = h.LoadRatio()
	}
	primaryIdx := weightedPick(ratios)
	primary := handlers[primaryIdx]

	out := []mcclient.MhAssignment{{
		MhID:                 primary.HandlerID,
		WebTransportEndpoint: primary.WebTransportEndpoint,
		Role:                 mcclient.RolePrimary,
	}}

	if len(handlers) > 1 {
		rest := append(append([]model.MediaHandler{}, handlers[:primaryIdx]...), handlers[primaryIdx+1:]...)
		restRatios := make([]float64, len(rest))
		for i, h := range rest {
			restRatios[i] = h.LoadRatio()
		}
		backup := rest[weightedPick(restRatios)]
		out = append(out, mcclient.MhAssignment{
			MhID:                 backup.HandlerID,
			WebTransportEndpoint: backup.WebTransportEndpoint,
			Role:                 mcclient.RoleBackup,
		})
	}

	return out, nil
}

func loadRatiosOf(cs []model.MeetingController) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.LoadRatio()
	}
	return out
}

func excludeTried(cs []model.MeetingController, tried map[string]bool) []model.MeetingController {
	out := cs[:0]
	for _, c := range cs {
		if !tried[c.ControllerID] {
			out = append(out, c)
		}
	}
	return out
}

func exhaustionError(reason mcclient.RejectionReason) error {
	switch reason {
	case mcclient.RejectionAtCapacity:
		return cperr.Newf(cperr.ServiceUnavailable, "at capacity")
	case mcclient.RejectionDraining:
		return cperr.Newf(cperr.ServiceUnavailable, "draining")
	case mcclient.RejectionUnhealthy:
		return cperr.Newf(cperr.ServiceUnavailable, "unhealthy")
	default:
		return cperr.Newf(cperr.ServiceUnavailable, "no meeting controller accepted the assignment")
	}
}

// EndAssignment delegates straight to the repository; it carries no
// placement-specific logic of its own.
func (e *Engine) EndAssignment(ctx context.Context, meetingID, region string) error {
	return e.repo.EndAssignment(ctx, meetingID, region)
}
