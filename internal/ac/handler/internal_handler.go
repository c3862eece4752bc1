package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/meetmesh/control-plane/internal/ac/logic"
	"github.com/meetmesh/control-plane/internal/ac/middleware"
	"github.com/meetmesh/control-plane/internal/ac/svc"
)

func InternalTokenHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Subject         string   `json:"subject"`
			MeetingID       string   `json:"meeting_id"`
			MeetingOrgID    string   `json:"meeting_org_id"`
			HomeOrgID       string   `json:"home_org_id"`
			ParticipantType string   `json:"participant_type"`
			Role            string   `json:"role"`
			Capabilities    []string `json:"capabilities"`
		}
		if err := httpx.Parse(r, &body); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		claims, _ := middleware.ClaimsFromContext(r.Context())
		callerScope := ""
		if claims != nil {
			callerScope = claims.Scope
		}

		l := logic.NewInternalTokenLogic(r.Context(), svcCtx)
		resp, err := l.IssueMeetingToken(&logic.InternalTokenRequest{
			CallerScope:     callerScope,
			Subject:         body.Subject,
			MeetingID:       body.MeetingID,
			MeetingOrgID:    body.MeetingOrgID,
			HomeOrgID:       body.HomeOrgID,
			ParticipantType: participantTypeOf(body.ParticipantType),
			Role:            roleOf(body.Role),
			Capabilities:    body.Capabilities,
		})
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func RotateKeysHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.ClaimsFromContext(r.Context())
		callerScope := ""
		if claims != nil {
			callerScope = claims.Scope
		}

		l := logic.NewRotateKeysLogic(r.Context(), svcCtx)
		resp, err := l.RotateKeys(&logic.RotateKeysRequest{CallerScope: callerScope})
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
