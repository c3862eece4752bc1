package config

import (
	"time"

	"github.com/zeromicro/go-zero/rest"
)

// Config is GC's service configuration, following the teacher's
// rest.RestConf-embedding pattern (shared/config/config.go).
type Config struct {
	rest.RestConf

	Database DatabaseConfig
	Auth     AuthConfig
	Placement PlacementConfig
	GRPC     GRPCConfig

	Region string `json:",env=GC_REGION"`
	GCID   string `json:",env=GC_ID"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	JWKSURL         string        `json:",env=AC_JWKS_URL"`
	InternalURL     string        `json:",env=AC_INTERNAL_URL"`
	ClientID        string        `json:",env=GC_CLIENT_ID"`
	ClientSecret    string        `json:",env=GC_CLIENT_SECRET"`
	JWKSCacheTTL    time.Duration `json:",default=5m"`
	ClockSkewWindow time.Duration `json:",default=5m"`
	StartupTimeout  time.Duration `json:",default=30s"`
}

// PlacementConfig holds the placement engine's configurable thresholds.
type PlacementConfig struct {
	StalenessThreshold time.Duration `json:",default=30s"`
	CleanupInterval    time.Duration `json:",default=1h"`
	InactivityWindow   time.Duration `json:",default=1h"`
	RetentionWindow    time.Duration `json:",default=168h"`
	MaxCandidates      int           `json:",default=5"`
	MaxAssignAttempts  int           `json:",default=3"`
}

type GRPCConfig struct {
	ListenOn string `json:",default=0.0.0.0:8081"`
}
