package model

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const upsertControllerQuery = `
	INSERT INTO meeting_controllers
		(controller_id, region, grpc_endpoint, webtransport_endpoint, max_meetings, current_meetings,
		 max_participants, current_participants, health_status, last_heartbeat_at, created_at, updated_at)
	VALUES
		(:controller_id, :region, :grpc_endpoint, :webtransport_endpoint, :max_meetings, 0,
		 :max_participants, 0, 'pending', now(), now(), now())
	ON CONFLICT (controller_id) DO UPDATE SET
		region = EXCLUDED.region,
		grpc_endpoint = EXCLUDED.grpc_endpoint,
		webtransport_endpoint = EXCLUDED.webtransport_endpoint,
		max_meetings = EXCLUDED.max_meetings,
		max_participants = EXCLUDED.max_participants,
		health_status = 'pending',
		updated_at = now()`

// RegisterController upserts by id: new registrations enter pending,
// re-registrations reset health to pending.
func (r *Repository) RegisterController(ctx context.Context, c *MeetingController) error {
	_, err := r.db.NamedExecContext(ctx, upsertControllerQuery, c)
	if err != nil {
		return cperr.New(cperr.Database, err)
	}
	return nil
}

const fastHeartbeatControllerQuery = `
	UPDATE meeting_controllers SET
		current_meetings = $2, current_participants = $3, health_status = $4, last_heartbeat_at = now(), updated_at = now()
	WHERE controller_id = $1`

// FastHeartbeat updates load and health; an unregistered controller_id
// returns NotFound so the caller knows to re-register.
func (r *Repository) FastHeartbeat(ctx context.Context, controllerID string, currentMeetings, currentParticipants int, status HealthStatus) error {
	res, err := r.db.ExecContext(ctx, fastHeartbeatControllerQuery, controllerID, currentMeetings, currentParticipants, status)
	if err != nil {
		return cperr.New(cperr.Database, err)
	}
	return requireRowsAffected(res)
}

const selectControllerByIDQuery = `
	SELECT controller_id, region, grpc_endpoint, webtransport_endpoint, max_meetings, current_meetings,
	       max_participants, current_participants, health_status, last_heartbeat_at, created_at, updated_at
	FROM meeting_controllers WHERE controller_id = $1`

func (r *Repository) ControllerByID(ctx context.Context, controllerID string) (*MeetingController, error) {
	var c MeetingController
	if err := r.db.GetContext(ctx, &c, selectControllerByIDQuery, controllerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &c, nil
}

const selectHealthyControllersQuery = `
	SELECT controller_id, region, grpc_endpoint, webtransport_endpoint, max_meetings, current_meetings,
	       max_participants, current_participants, health_status, last_heartbeat_at, created_at, updated_at
	FROM meeting_controllers
	WHERE region = $1 AND health_status = 'healthy' AND current_meetings < max_meetings
	ORDER BY (current_meetings::float / NULLIF(max_meetings, 0)) ASC
	LIMIT $2`

// HealthyControllers selects up to maxCandidates healthy, free-capacity
// controllers in region, ordered by ascending load ratio.
func (r *Repository) HealthyControllers(ctx context.Context, region string, maxCandidates int) ([]MeetingController, error) {
	var out []MeetingController
	if err := r.db.SelectContext(ctx, &out, selectHealthyControllersQuery, region, maxCandidates); err != nil {
		return nil, cperr.New(cperr.Database, err)
	}
	return out, nil
}

const markStaleControllersUnhealthyQuery = `
	UPDATE meeting_controllers SET health_status = 'unhealthy', updated_at = now()
	WHERE last_heartbeat_at < $1 AND health_status NOT IN ('unhealthy', 'draining')`

// MarkStaleControllersUnhealthy implements the periodic stale-heartbeat
// sweep: draining is preserved, everything else past the threshold flips.
func (r *Repository) MarkStaleControllersUnhealthy(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, markStaleControllersUnhealthyQuery, threshold)
	if err != nil {
		return 0, cperr.New(cperr.Database, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

const upsertHandlerQuery = `
	INSERT INTO media_handlers
		(handler_id, region, webtransport_endpoint, grpc_endpoint, max_streams, current_streams, health_status, last_heartbeat_at, created_at, updated_at)
	VALUES
		(:handler_id, :region, :webtransport_endpoint, :grpc_endpoint, :max_streams, 0, 'pending', now(), now(), now())
	ON CONFLICT (handler_id) DO UPDATE SET
		region = EXCLUDED.region,
		webtransport_endpoint = EXCLUDED.webtransport_endpoint,
		grpc_endpoint = EXCLUDED.grpc_endpoint,
		max_streams = EXCLUDED.max_streams,
		health_status = 'pending',
		updated_at = now()`

func (r *Repository) RegisterHandler(ctx context.Context, h *MediaHandler) error {
	_, err := r.db.NamedExecContext(ctx, upsertHandlerQuery, h)
	if err != nil {
		return cperr.New(cperr.Database, err)
	}
	return nil
}

const comprehensiveHeartbeatHandlerQuery = `
	UPDATE media_handlers SET
		current_streams = $2, health_status = $3, cpu_usage_percent = $4, memory_usage_percent = $5,
		bandwidth_usage_percent = $6, last_heartbeat_at = now(), updated_at = now()
	WHERE handler_id = $1`

func (r *Repository) ComprehensiveHeartbeatHandler(ctx context.Context, handlerID string, currentStreams int, status HealthStatus, cpu, mem, bw float64) error {
	res, err := r.db.ExecContext(ctx, comprehensiveHeartbeatHandlerQuery, handlerID, currentStreams, status, cpu, mem, bw)
	if err != nil {
		return cperr.New(cperr.Database, err)
	}
	return requireRowsAffected(res)
}

const selectHealthyHandlersQuery = `
	SELECT handler_id, region, webtransport_endpoint, grpc_endpoint, max_streams, current_streams,
	       health_status, cpu_usage_percent, memory_usage_percent, bandwidth_usage_percent, last_heartbeat_at, created_at, updated_at
	FROM media_handlers
	WHERE region = $1 AND health_status = 'healthy' AND current_streams < max_streams
	ORDER BY (current_streams::float / NULLIF(max_streams, 0)) ASC
	LIMIT $2`

// HealthyHandlers selects up to maxCandidates healthy, free-capacity
// media handlers in region.
func (r *Repository) HealthyHandlers(ctx context.Context, region string, maxCandidates int) ([]MediaHandler, error) {
	var out []MediaHandler
	if err := r.db.SelectContext(ctx, &out, selectHealthyHandlersQuery, region, maxCandidates); err != nil {
		return nil, cperr.New(cperr.Database, err)
	}
	return out, nil
}

const selectActiveAssignmentQuery = `
	SELECT a.meeting_id, a.region, a.meeting_controller_id, a.assigned_by_gc_id, a.assigned_at, a.ended_at
	FROM meeting_assignments a
	JOIN meeting_controllers c ON c.controller_id = a.meeting_controller_id
	WHERE a.meeting_id = $1 AND a.region = $2 AND a.ended_at IS NULL
	  AND c.health_status = 'healthy' AND c.last_heartbeat_at >= $3`

// HealthyAssignment probes for an existing active assignment backed by a
// healthy, fresh controller; an assignment pointing at an unhealthy/stale
// controller does not count.
func (r *Repository) HealthyAssignment(ctx context.Context, meetingID, region string, freshSince time.Time) (*MeetingAssignment, error) {
	var a MeetingAssignment
	err := r.db.GetContext(ctx, &a, selectActiveAssignmentQuery, meetingID, region, freshSince)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &a, nil
}

const selectAnyActiveAssignmentQuery = `
	SELECT meeting_id, region, meeting_controller_id, assigned_by_gc_id, assigned_at, ended_at
	FROM meeting_assignments WHERE meeting_id = $1 AND region = $2 AND ended_at IS NULL`

// AnyActiveAssignment re-reads the current assignment regardless of
// controller health, used after a race loss on UpsertAssignment.
func (r *Repository) AnyActiveAssignment(ctx context.Context, meetingID, region string) (*MeetingAssignment, error) {
	var a MeetingAssignment
	err := r.db.GetContext(ctx, &a, selectAnyActiveAssignmentQuery, meetingID, region)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &a, nil
}

const upsertAssignmentQuery = `
	INSERT INTO meeting_assignments (meeting_id, region, meeting_controller_id, assigned_by_gc_id, assigned_at, ended_at)
	VALUES ($1, $2, $3, $4, now(), NULL)
	ON CONFLICT (meeting_id, region) WHERE ended_at IS NULL DO UPDATE SET
		meeting_controller_id = EXCLUDED.meeting_controller_id,
		assigned_by_gc_id = EXCLUDED.assigned_by_gc_id,
		assigned_at = now()
	WHERE EXISTS (
		SELECT 1 FROM meeting_controllers c
		WHERE c.controller_id = meeting_assignments.meeting_controller_id
		  AND (c.health_status <> 'healthy' OR c.last_heartbeat_at < $5)
	)
	RETURNING meeting_id, region, meeting_controller_id, assigned_by_gc_id, assigned_at, ended_at`

// UpsertAssignment is the atomic upsert: it inserts if absent, or
// replaces only if the existing row's controller is now
// unhealthy/stale. On a race loss (another GC won with a healthy
// controller) the conditional update affects 0 rows and the caller must
// re-read via AnyActiveAssignment.
func (r *Repository) UpsertAssignment(ctx context.Context, meetingID, region, controllerID, gcID string, staleSince time.Time) (*MeetingAssignment, bool, error) {
	var a MeetingAssignment
	err := r.db.GetContext(ctx, &a, upsertAssignmentQuery, meetingID, region, controllerID, gcID, staleSince)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, cperr.New(cperr.Database, err)
	}
	return &a, true, nil
}

const endAssignmentQuery = `
	UPDATE meeting_assignments SET ended_at = now()
	WHERE meeting_id = $1 AND region = $2 AND ended_at IS NULL`

// EndAssignment is idempotent: a second call affects 0 rows.
func (r *Repository) EndAssignment(ctx context.Context, meetingID, region string) error {
	res, err := r.db.ExecContext(ctx, endAssignmentQuery, meetingID, region)
	if err != nil {
		return cperr.New(cperr.Database, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logx.WithContext(ctx).Infof("no active assignment for meeting %s in %s: already ended", meetingID, region)
	}
	return nil
}

const softDeleteStaleAssignmentsQuery = `
	UPDATE meeting_assignments a SET ended_at = now()
	FROM meeting_controllers c
	WHERE a.meeting_controller_id = c.controller_id AND a.ended_at IS NULL
	  AND c.health_status IN ('unhealthy') AND c.last_heartbeat_at < $1`

// SoftDeleteStaleAssignments is cleanup (a): assignments whose MC has been
// unhealthy/stale longer than the inactivity threshold.
func (r *Repository) SoftDeleteStaleAssignments(ctx context.Context, inactiveSince time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, softDeleteStaleAssignmentsQuery, inactiveSince)
	if err != nil {
		return 0, cperr.New(cperr.Database, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

const hardDeleteRetiredAssignmentsQuery = `
	DELETE FROM meeting_assignments WHERE ended_at IS NOT NULL AND ended_at < $1`

// HardDeleteRetiredAssignments is cleanup (b): rows past the retention
// window.
func (r *Repository) HardDeleteRetiredAssignments(ctx context.Context, retainedSince time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, hardDeleteRetiredAssignmentsQuery, retainedSince)
	if err != nil {
		return 0, cperr.New(cperr.Database, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return cperr.New(cperr.Database, err)
	}
	if n == 0 {
		return cperr.New(cperr.NotFound, nil)
	}
	return nil
}
