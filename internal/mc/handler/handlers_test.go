package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/mc/actor"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
	"github.com/meetmesh/control-plane/internal/mc/svc"
)

func newTestSvcCtx(t *testing.T) *svc.ServiceContext {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.New(client)
	return &svc.ServiceContext{Controller: actor.NewController([]byte("0123456789abcdef0123456789abcdef"), store)}
}

func TestHealthHandlerReportsOkWhenNotDraining(t *testing.T) {
	svcCtx := newTestSvcCtx(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)

	HealthHandler(svcCtx)(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandlerReportsDrainingWhenControllerIsDraining(t *testing.T) {
	svcCtx := newTestSvcCtx(t)
	svcCtx.Controller.Drain(time.Second)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)

	HealthHandler(svcCtx)(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"draining"}`, rec.Body.String())
}
