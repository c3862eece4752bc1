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

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type LoginLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LoginLogic {
	return &LoginLogic{ctx: ctx, svcCtx: svcCtx, Logger: logx.WithContext(ctx)}
}

// Login verifies (email, password) and mints a user-scoped access token.
// A missing user and a wrong password both surface as the same
// PermissionDenied rejection so login never reveals account existence.
func (l *LoginLogic) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := l.svcCtx.Repo.UserByEmail(l.ctx, req.Email)
	if err != nil {
		if cperr.KindOf(err) == cperr.NotFound {
			return nil, cperr.New(cperr.PermissionDenied, fmt.Errorf("no such user"))
		}
		return nil, err
	}

	ok, err := accrypto.VerifySecret(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cperr.New(cperr.PermissionDenied, fmt.Errorf("wrong password"))
	}

	ttl := l.svcCtx.Config.Auth.AccessTokenTTL
	token, _, err := issueToken(l.ctx, l.svcCtx, user.ID, "user", ttl, func(c *jwtclaims.Claims) {
		c.HomeOrgID = user.OrgID
	})
	if err != nil {
		l.Logger.Errorf("failed to issue access token for user %s: %v", user.ID, err)
		return nil, err
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}
