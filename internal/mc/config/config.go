package config

import (
	"time"

	"github.com/zeromicro/go-zero/rest"
)

// Config is MC's service configuration, following the teacher's
// rest.RestConf-embedding pattern.
type Config struct {
	rest.RestConf

	Database RedisConfig
	Auth     AuthConfig
	GC       GCConfig
	GRPC     GRPCConfig

	Region      string `json:",env=MC_REGION"`
	ControllerID string `json:",env=MC_ID"`

	MaxMeetings     int `json:",default=1000,env=MC_MAX_MEETINGS"`
	MaxParticipants int `json:",default=100000,env=MC_MAX_PARTICIPANTS"`

	// BindingTokenSecretBase64 must decode to >= 32 bytes; fatal otherwise.
	BindingTokenSecretBase64 string        `json:",env=MC_BINDING_TOKEN_SECRET"`
	BindingTokenTTL          time.Duration `json:",default=30s"`
	DisconnectGrace          time.Duration `json:",default=30s"`
	SweepInterval            time.Duration `json:",default=5s"`
	ShutdownBudget           time.Duration `json:",default=30s"`
}

type RedisConfig struct {
	Host     string `json:",env=REDIS_HOST"`
	Port     int    `json:",default=6379,env=REDIS_PORT"`
	Password string
	DB       int
}

type AuthConfig struct {
	JWKSURL         string        `json:",env=AC_JWKS_URL"`
	InternalURL     string        `json:",env=AC_INTERNAL_URL"`
	ClientID        string        `json:",env=MC_CLIENT_ID"`
	ClientSecret    string        `json:",env=MC_CLIENT_SECRET"`
	JWKSCacheTTL    time.Duration `json:",default=5m"`
	ClockSkewWindow time.Duration `json:",default=5m"`
	StartupTimeout  time.Duration `json:",default=30s"`
}

type GCConfig struct {
	GRPCEndpoint      string        `json:",env=GC_GRPC_BIND_ADDRESS"`
	FastHeartbeat     time.Duration `json:",default=10s"`
	Comprehensive     time.Duration `json:",default=30s"`
	WebTransportEndpoint string     `json:",env=MC_WEBTRANSPORT_ENDPOINT"`
}

type GRPCConfig struct {
	ListenOn string `json:",default=0.0.0.0:8082"`
}
