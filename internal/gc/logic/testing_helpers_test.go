package logic

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/common/tokenmanager"
	"github.com/meetmesh/control-plane/internal/gc/acclient"
	"github.com/meetmesh/control-plane/internal/gc/config"
	"github.com/meetmesh/control-plane/internal/gc/mcclient"
	"github.com/meetmesh/control-plane/internal/gc/model"
	"github.com/meetmesh/control-plane/internal/gc/placement"
	"github.com/meetmesh/control-plane/internal/gc/svc"
)

var controllerColumns = []string{
	"controller_id", "region", "grpc_endpoint", "webtransport_endpoint", "max_meetings", "current_meetings",
	"max_participants", "current_participants", "health_status", "last_heartbeat_at", "created_at", "updated_at",
}

var handlerColumns = []string{
	"handler_id", "region", "webtransport_endpoint", "grpc_endpoint", "max_streams", "current_streams",
	"health_status", "cpu_usage_percent", "memory_usage_percent", "bandwidth_usage_percent", "last_heartbeat_at", "created_at", "updated_at",
}

var assignmentColumns = []string{"meeting_id", "region", "meeting_controller_id", "assigned_by_gc_id", "assigned_at", "ended_at"}

// newTestSvcCtx wires a real GC ServiceContext whose DB is sqlmock-backed,
// whose AC client points at an httptest server issuing a fixed meeting
// token, and whose placement Engine uses a scripted mcclient.Mock.
func newTestSvcCtx(t *testing.T, mc *mcclient.Mock, meetingToken string) (*svc.ServiceContext, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := model.NewRepository(sqlx.NewDb(db, "postgres"))

	acServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(acclient.MeetingTokenResponse{Token: meetingToken, ExpiresIn: 3600})
	}))
	t.Cleanup(acServer.Close)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "svc-tok", "expires_in": 900})
	}))
	t.Cleanup(tokenServer.Close)

	tokens := tokenmanager.New(tokenServer.URL, "gc-client", "secret")
	require.NoError(t, tokens.Start(t.Context(), time.Second))

	engine := placement.NewEngine(repo, mc, placement.Config{
		StalenessThreshold: time.Minute, MaxCandidates: 5, MaxAssignAttempts: 3,
	}, "gc-1")

	return &svc.ServiceContext{
		Config:    config.Config{Region: "us-east"},
		Repo:      repo,
		Tokens:    tokens,
		AC:        acclient.New(acServer.URL, tokens),
		Placement: engine,
	}, mock
}

func oneControllerRow(id string, max, current int) *sqlmock.Rows {
	return sqlmock.NewRows(controllerColumns).AddRow(
		id, "us-east", "grpc://"+id, sql.NullString{String: "wt://" + id, Valid: true}, max, current, 100, 0, "healthy", time.Now(), time.Now(), time.Now(),
	)
}

func oneHandlerRow(id string, max, current int) *sqlmock.Rows {
	return sqlmock.NewRows(handlerColumns).AddRow(
		id, "us-east", "wt://"+id, "grpc://"+id, max, current, "healthy",
		sql.NullFloat64{}, sql.NullFloat64{}, sql.NullFloat64{}, time.Now(), time.Now(), time.Now(),
	)
}
