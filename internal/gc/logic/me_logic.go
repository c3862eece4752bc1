package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/gc/svc"
)

type MeResponse struct {
	Subject string `json:"sub"`
	Scope   string `json:"scope"`
	Exp     int64  `json:"exp"`
	Iat     int64  `json:"iat"`
}

type MeLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewMeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MeLogic {
	return &MeLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// Me returns the caller's own claims. The subject is redacted in logs
// (never logged here at all) but returned verbatim in the response body,
// which is the caller's own identity.
func (l *MeLogic) Me(claims *jwtclaims.Claims) (*MeResponse, error) {
	resp := &MeResponse{Subject: claims.Subject, Scope: claims.Scope}
	if claims.ExpiresAt != nil {
		resp.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		resp.Iat = claims.IssuedAt.Unix()
	}
	return resp, nil
}
