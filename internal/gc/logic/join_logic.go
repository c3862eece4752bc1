package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/gc/acclient"
	"github.com/meetmesh/control-plane/internal/gc/svc"
)

type JoinMeetingResponse struct {
	Token      string `json:"token"`
	ExpiresIn  int64  `json:"expires_in"`
	McEndpoint string `json:"mc_endpoint"`
}

type JoinMeetingLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewJoinMeetingLogic(ctx context.Context, svcCtx *svc.ServiceContext) *JoinMeetingLogic {
	return &JoinMeetingLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// JoinMeeting resolves the meeting to this region, assigns it to an MC
// (if not already assigned), requests a meeting token from AC, and
// returns the token plus MC endpoint.
//
// The human meeting code is treated as the meeting_id directly: the route
// exposes a human-friendly "code" but there is no separate code→id
// mapping table, so this keeps the one entity GC actually persists.
func (l *JoinMeetingLogic) JoinMeeting(claims *jwtclaims.Claims, meetingCode string) (*JoinMeetingResponse, error) {
	region := l.svcCtx.Config.Region

	assignment, err := l.svcCtx.Placement.AssignMeeting(l.ctx, meetingCode, region)
	if err != nil {
		return nil, err
	}

	controller, err := l.svcCtx.Repo.ControllerByID(l.ctx, assignment.MeetingControllerID)
	if err != nil {
		return nil, err
	}

	tokenResp, err := l.svcCtx.AC.IssueMeetingToken(l.ctx, &acclient.MeetingTokenRequest{
		Subject:         claims.Subject,
		MeetingID:       meetingCode,
		MeetingOrgID:    region,
		HomeOrgID:       claims.HomeOrgID,
		ParticipantType: string(jwtclaims.ParticipantMember),
		Role:            string(jwtclaims.RoleParticipant),
	})
	if err != nil {
		return nil, err
	}

	endpoint := controller.WebTransportEndpoint.String
	if endpoint == "" {
		endpoint = controller.GRPCEndpoint
	}

	return &JoinMeetingResponse{
		Token:      tokenResp.Token,
		ExpiresIn:  tokenResp.ExpiresIn,
		McEndpoint: endpoint,
	}, nil
}
