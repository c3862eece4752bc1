package logic

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/ac/svc"
	"github.com/meetmesh/control-plane/internal/common/cperr"
)

// RotateKeysRequest carries the caller's scope for the defensive check
// this logic performs in addition to whatever middleware already gated it.
type RotateKeysRequest struct {
	CallerScope string
}

type RotateKeysResponse struct {
	NewKeyID string `json:"new_key_id"`
}

var rotateScopes = []string{"service.rotate-keys.ac", "admin.force-rotate-keys.ac"}

type RotateKeysLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewRotateKeysLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RotateKeysLogic {
	return &RotateKeysLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// RotateKeys forces a signing-key rotation. Concurrent callers race on
// keystore.Store's internal mutex; every loser sees cperr.RateLimited
// ("already rotated") rather than a corrupted key table.
func (l *RotateKeysLogic) RotateKeys(req *RotateKeysRequest) (*RotateKeysResponse, error) {
	allowed := false
	for _, s := range rotateScopes {
		if hasScope(req.CallerScope, s) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, cperr.New(cperr.PermissionDenied, fmt.Errorf("missing rotate-keys scope"))
	}

	key, err := l.svcCtx.Keys.Rotate(l.ctx)
	if err != nil {
		if cperr.KindOf(err) == cperr.RateLimited {
			l.Logger.Infof("rotation already in progress, this caller observed already-rotated")
		}
		return nil, err
	}

	return &RotateKeysResponse{NewKeyID: key.KeyID}, nil
}
