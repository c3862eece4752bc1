package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/meetmesh/control-plane/internal/ac/middleware"
	"github.com/meetmesh/control-plane/internal/ac/svc"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

const (
	internalMeetingTokenScope = "internal:meeting-token"
)

var rotateKeyScopes = []string{"service.rotate-keys.ac", "admin.force-rotate-keys.ac"}

// RegisterHandlers wires every AC route onto the server, following the
// teacher's goctl-generated pattern of one RegisterHandlers call per
// service, hand-authored here since AC's routes are few and fixed.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	maxSize := jwtclaims.MaxSizeAC
	clockSkew := svcCtx.Config.Auth.ClockSkewWindow

	internalGuard := middleware.NewScopeGuard(svcCtx.Keys, maxSize, clockSkew, internalMeetingTokenScope)
	rotateGuard := middleware.NewScopeGuard(svcCtx.Keys, maxSize, clockSkew, rotateKeyScopes...)

	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/api/v1/auth/login",
			Handler: LoginHandler(svcCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/oauth/token",
			Handler: ServiceLoginHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/.well-known/jwks.json",
			Handler: JWKSHandler(svcCtx),
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/internal/meeting-token",
			Handler: internalGuard.Handle(InternalTokenHandler(svcCtx)),
		},
		{
			Method:  http.MethodPost,
			Path:    "/v1/internal/rotate-keys",
			Handler: rotateGuard.Handle(RotateKeysHandler(svcCtx)),
		},
	})
}
