package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/gc/svc"
)

type SettingsRequest struct {
	Settings map[string]any `json:"settings"`
}

type SettingsResponse struct {
	Applied bool `json:"applied"`
}

type SettingsLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewSettingsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SettingsLogic {
	return &SettingsLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// Update is the host-only settings PATCH. It checks that the caller holds
// a role=host token for this meeting and that the meeting has an active
// assignment, then reports Applied. The settings themselves are neither
// stored nor forwarded to the MC.
func (l *SettingsLogic) Update(claims *jwtclaims.Claims, meetingID string, req *SettingsRequest) (*SettingsResponse, error) {
	if claims.Role != jwtclaims.RoleHost || claims.MeetingID != meetingID {
		return nil, cperr.New(cperr.PermissionDenied, nil)
	}

	if _, err := l.svcCtx.Repo.AnyActiveAssignment(l.ctx, meetingID, l.svcCtx.Config.Region); err != nil {
		return nil, err
	}

	return &SettingsResponse{Applied: true}, nil
}
