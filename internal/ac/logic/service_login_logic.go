package logic

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	accrypto "github.com/meetmesh/control-plane/internal/ac/crypto"
	"github.com/meetmesh/control-plane/internal/ac/svc"
	"github.com/meetmesh/control-plane/internal/common/cperr"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
)

// ServiceLoginRequest is the OAuth2 client-credentials grant GC and MC
// speak against AC, consumed on the other end by
// internal/common/tokenmanager.
type ServiceLoginRequest struct {
	GrantType    string `form:"grant_type"`
	ClientID     string `form:"client_id"`
	ClientSecret string `form:"client_secret"`
}

type ServiceLoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ServiceLoginLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewServiceLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ServiceLoginLogic {
	return &ServiceLoginLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

func (l *ServiceLoginLogic) ServiceLogin(req *ServiceLoginRequest) (*ServiceLoginResponse, error) {
	if req.GrantType != "client_credentials" {
		return nil, cperr.Newf(cperr.InvalidToken, "unsupported grant_type %q", req.GrantType)
	}

	client, err := l.svcCtx.Repo.ServiceClientByID(l.ctx, req.ClientID)
	if err != nil {
		if cperr.KindOf(err) == cperr.NotFound {
			return nil, cperr.New(cperr.PermissionDenied, fmt.Errorf("unknown client_id"))
		}
		return nil, err
	}

	ok, err := accrypto.VerifySecret(client.ClientSecretHash, req.ClientSecret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cperr.New(cperr.PermissionDenied, fmt.Errorf("wrong client_secret"))
	}

	ttl := l.svcCtx.Config.Auth.AccessTokenTTL
	token, _, err := issueToken(l.ctx, l.svcCtx, client.ClientID, client.Scope, ttl, func(c *jwtclaims.Claims) {
		c.ServiceType = client.ServiceType
	})
	if err != nil {
		l.Logger.Errorf("failed to issue service token for client %s: %v", client.ClientID, err)
		return nil, err
	}

	return &ServiceLoginResponse{AccessToken: token, ExpiresIn: int64(ttl.Seconds())}, nil
}
