package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/meetmesh/control-plane/internal/ac/jwks"
	"github.com/meetmesh/control-plane/internal/ac/svc"
)

// JWKSHandler serves the RFC 7517 document that internal/common/jwksclient
// polls. It carries no scope guard: JWKS is public within the deployment,
// the whole point of asymmetric signing.
func JWKSHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := jwks.Build(r.Context(), svcCtx.Keys)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, doc)
	}
}
