package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/meetmesh/control-plane/internal/gc/middleware"
	"github.com/meetmesh/control-plane/internal/gc/svc"
)

// RegisterHandlers wires GC's REST surfaces onto the server.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	userGuard := middleware.NewAuthGuard(svcCtx.Verifier, "")

	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodGet,
			Path:    "/v1/health",
			Handler: HealthHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/v1/me",
			Handler: userGuard.Handle(MeHandler(svcCtx)),
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/meetings/:code",
			Handler: userGuard.Handle(JoinMeetingHandler(svcCtx)),
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/meetings/:code/guest-token",
			Handler: GuestTokenHandler(svcCtx),
		},
		{
			Method:  http.MethodPatch,
			Path:    "/v1/meetings/:id/settings",
			Handler: userGuard.Handle(SettingsHandler(svcCtx)),
		},
	})
}
