package logic

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/ac/svc"
	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

// InternalTokenRequest mints a meeting or guest token for a participant
// that GC has already authorized to join. Called only by GC, over the
// internal surface guarded by the "internal:meeting-token" scope.
type InternalTokenRequest struct {
	CallerScope string // the scope on the caller's own bearer token, checked by the handler

	Subject         string
	MeetingID       string
	MeetingOrgID    string
	HomeOrgID       string
	ParticipantType jwtclaims.ParticipantType
	Role            jwtclaims.Role
	Capabilities    []string
}

type InternalTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

const internalMeetingTokenScope = "internal:meeting-token"

type InternalTokenLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewInternalTokenLogic(ctx context.Context, svcCtx *svc.ServiceContext) *InternalTokenLogic {
	return &InternalTokenLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// IssueMeetingToken mints a meeting (or guest) token for the given
// participant. The caller's scope must already carry
// "internal:meeting-token" — checked here defensively in addition to
// whatever middleware gated the request.
func (l *InternalTokenLogic) IssueMeetingToken(req *InternalTokenRequest) (*InternalTokenResponse, error) {
	if !hasScope(req.CallerScope, internalMeetingTokenScope) {
		return nil, cperr.New(cperr.PermissionDenied, fmt.Errorf("missing scope %q", internalMeetingTokenScope))
	}

	ttl := l.svcCtx.Config.Auth.MeetingTokenTTL
	if req.ParticipantType == jwtclaims.ParticipantGuest {
		ttl = l.svcCtx.Config.Auth.GuestTokenTTL
	}

	scope := "meeting"
	token, _, err := issueToken(l.ctx, l.svcCtx, req.Subject, scope, ttl, func(c *jwtclaims.Claims) {
		c.MeetingID = req.MeetingID
		c.MeetingOrgID = req.MeetingOrgID
		c.HomeOrgID = req.HomeOrgID
		c.ParticipantType = req.ParticipantType
		c.Role = req.Role
		c.Capabilities = req.Capabilities
	})
	if err != nil {
		l.Logger.Errorf("failed to issue meeting token for subject %s meeting %s: %v", req.Subject, req.MeetingID, err)
		return nil, err
	}

	return &InternalTokenResponse{Token: token, ExpiresIn: int64(ttl.Seconds())}, nil
}

func hasScope(scopeClaim, want string) bool {
	start := 0
	for i := 0; i <= len(scopeClaim); i++ {
		if i == len(scopeClaim) || scopeClaim[i] == ' ' {
			if scopeClaim[start:i] == want {
				return true
			}
			start = i + 1
		}
	}
	return false
}
