package logic

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/gc/acclient"
	"github.com/meetmesh/control-plane/internal/gc/svc"
)

type GuestTokenRequest struct {
	DisplayName  string `json:"display_name"`
	CaptchaToken string `json:"captcha_token"`
}

type GuestTokenLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewGuestTokenLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GuestTokenLogic {
	return &GuestTokenLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// GuestToken is the unauthenticated, captcha-guarded join surface. The
// captcha verifier's own contract is left open; this only enforces that a
// token was presented.
func (l *GuestTokenLogic) GuestToken(meetingCode string, req *GuestTokenRequest) (*JoinMeetingResponse, error) {
	if req.CaptchaToken == "" {
		return nil, cperr.New(cperr.PermissionDenied, nil)
	}

	region := l.svcCtx.Config.Region
	assignment, err := l.svcCtx.Placement.AssignMeeting(l.ctx, meetingCode, region)
	if err != nil {
		return nil, err
	}

	controller, err := l.svcCtx.Repo.ControllerByID(l.ctx, assignment.MeetingControllerID)
	if err != nil {
		return nil, err
	}

	guestSubject := "guest:" + uuid.NewString()
	tokenResp, err := l.svcCtx.AC.IssueMeetingToken(l.ctx, &acclient.MeetingTokenRequest{
		Subject:         guestSubject,
		MeetingID:       meetingCode,
		MeetingOrgID:    region,
		ParticipantType: string(jwtclaims.ParticipantGuest),
		Role:            string(jwtclaims.RoleGuest),
	})
	if err != nil {
		return nil, err
	}

	endpoint := controller.WebTransportEndpoint.String
	if endpoint == "" {
		endpoint = controller.GRPCEndpoint
	}

	return &JoinMeetingResponse{Token: tokenResp.Token, ExpiresIn: tokenResp.ExpiresIn, McEndpoint: endpoint}, nil
}
