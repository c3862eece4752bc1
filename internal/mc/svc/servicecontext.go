package svc

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/meetmesh/control-plane/internal/common/jwksclient"
	"github.com/meetmesh/control-plane/internal/common/jwtclaims"
	"github.com/meetmesh/control-plane/internal/common/tokenmanager"
	"github.com/meetmesh/control-plane/internal/mc/actor"
	"github.com/meetmesh/control-plane/internal/mc/config"
	"github.com/meetmesh/control-plane/internal/mc/gcclient"
	"github.com/meetmesh/control-plane/internal/mc/redisstore"
	"github.com/meetmesh/control-plane/internal/pb/gcpb"
	"github.com/meetmesh/control-plane/third_party/cache"
)

type ServiceContext struct {
	Config     config.Config
	Redis      *cache.RedisClient
	Store      *redisstore.Store
	Controller *actor.ControllerActor
	Verifier   *jwksclient.Verifier
	Tokens     *tokenmanager.Manager
	GC         *gcclient.Client
	Registrar  *gcclient.Registrar
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	rdb, err := cache.NewRedisConnection(cache.RedisConfig{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Password: c.Database.Password,
		DB:       c.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	store := redisstore.New(rdb.GetClient())

	masterSecret, err := base64.StdEncoding.DecodeString(c.BindingTokenSecretBase64)
	if err != nil || len(masterSecret) < 32 {
		return nil, fmt.Errorf("MC_BINDING_TOKEN_SECRET must base64-decode to at least 32 bytes")
	}

	controller := actor.NewController(masterSecret, store)

	jwks := jwksclient.New(c.Auth.JWKSURL, c.Auth.JWKSCacheTTL)
	verifier := jwksclient.NewVerifier(jwks, jwtclaims.MaxSizeEdge, c.Auth.ClockSkewWindow)
	tokens := tokenmanager.New(c.Auth.InternalURL+"/v1/oauth/token", c.Auth.ClientID, c.Auth.ClientSecret)

	gcClient, err := gcclient.Dial(c.GC.GRPCEndpoint, tokens)
	if err != nil {
		return nil, fmt.Errorf("dial gc: %w", err)
	}

	self := gcpb.RegisterMcRequest{
		ControllerID:         c.ControllerID,
		Region:               c.Region,
		GRPCEndpoint:         c.GRPC.ListenOn,
		WebTransportEndpoint: c.GC.WebTransportEndpoint,
		MaxMeetings:          c.MaxMeetings,
		MaxParticipants:      c.MaxParticipants,
	}
	registrar := gcclient.NewRegistrar(gcClient, self, c.GC.FastHeartbeat, c.GC.Comprehensive, func() (int, int, string) {
		status := controller.Status()
		health := "healthy"
		if status.Draining {
			health = "draining"
		}
		return status.MeetingCount, 0, health
	})

	return &ServiceContext{
		Config:     c,
		Redis:      rdb,
		Store:      store,
		Controller: controller,
		Verifier:   verifier,
		Tokens:     tokens,
		GC:         gcClient,
		Registrar:  registrar,
	}, nil
}

// Start blocks on the tokenmanager's first acquisition and then performs
// the one-time registration with GC.
func (s *ServiceContext) Start(ctx context.Context) error {
	if err := s.Tokens.Start(ctx, s.Config.Auth.StartupTimeout); err != nil {
		return err
	}
	if err := s.Registrar.Register(ctx); err != nil {
		logx.Errorf("registering with gc: %v", err)
		return err
	}
	return nil
}
