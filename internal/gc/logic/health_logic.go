// Package logic implements GC's REST handlers' business logic in the
// teacher's Logic-struct-per-operation style.
package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/gc/svc"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type HealthLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewHealthLogic(ctx context.Context, svcCtx *svc.ServiceContext) *HealthLogic {
	return &HealthLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

func (l *HealthLogic) Health() (*HealthResponse, error) {
	return &HealthResponse{Status: "ok"}, nil
}
