package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/meetmesh/control-plane/internal/mc/svc"
)

type healthResponse struct {
	Status string `json:"status"`
}

func HealthHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if svcCtx.Controller.Status().Draining {
			status = "draining"
		}
		httpx.OkJsonCtx(r.Context(), w, healthResponse{Status: status})
	}
}
