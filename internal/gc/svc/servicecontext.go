package svc

import (
	"context"
	"fmt"

	"github.com/meetmesh/control-plane/internal/common/jwksclient"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/common/tokenmanager"
	"github.com/meetmesh/control-plane/internal/gc/acclient"
	"github.com/meetmesh/control-plane/internal/gc/config"
	"github.com/meetmesh/control-plane/internal/gc/mcclient"
	"github.com/meetmesh/control-plane/internal/gc/model"
	"github.com/meetmesh/control-plane/internal/gc/placement"
	"github.com/meetmesh/control-plane/third_party/database"
)

type ServiceContext struct {
	Config    config.Config
	Repo      *model.Repository
	Verifier  *jwksclient.Verifier
	Tokens    *tokenmanager.Manager
	AC        *acclient.Client
	Placement *placement.Engine
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	db, err := database.NewPostgresConnection(database.PostgresConfig{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.DBName,
		SSLMode:  c.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := model.NewRepository(db)

	jwks := jwksclient.New(c.Auth.JWKSURL, c.Auth.JWKSCacheTTL)
	verifier := jwksclient.NewVerifier(jwks, jwtclaims.MaxSizeEdge, c.Auth.ClockSkewWindow)
	tokens := tokenmanager.New(c.Auth.InternalURL+"/v1/oauth/token", c.Auth.ClientID, c.Auth.ClientSecret)

	engine := placement.NewEngine(repo, mcclient.NewReal(), placement.Config{
		StalenessThreshold: c.Placement.StalenessThreshold,
		MaxCandidates:      c.Placement.MaxCandidates,
		MaxAssignAttempts:  c.Placement.MaxAssignAttempts,
	}, c.GCID)

	return &ServiceContext{
		Config:    c,
		Repo:      repo,
		Verifier:  verifier,
		Tokens:    tokens,
		AC:        acclient.New(c.Auth.InternalURL, tokens),
		Placement: engine,
	}, nil
}

// Start blocks on the tokenmanager's first acquisition.
func (s *ServiceContext) Start(ctx context.Context) error {
	return s.Tokens.Start(ctx, s.Config.Auth.StartupTimeout)
}
