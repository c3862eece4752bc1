package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/meetmesh/control-plane/internal/mc/metrics"
	"github.com/meetmesh/control-plane/internal/mc/svc"
)

// RegisterHandlers wires MC's REST surface onto the server: health and
// Prometheus /metrics, everything else being WebTransport signaling out
// of this system's HTTP-framing scope.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	collector := metrics.NewCollector(svcCtx.Controller)

	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodGet,
			Path:    "/v1/health",
			Handler: HealthHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/metrics",
			Handler: collector.Handler().ServeHTTP,
		},
	})
}
