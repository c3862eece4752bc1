package config

import (
	"time"

	"github.com/zeromicro/go-zero/rest"

	"github.com/meetmesh/control-plane/internal/common/secret"
)

// Config is AC's service configuration, loaded via conf.MustLoad from the
// -f YAML file, following the teacher's rest.RestConf-embedding pattern.
type Config struct {
	rest.RestConf

	Database DatabaseConfig
	Auth     AuthConfig
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
	// MasterKeyBase64 is the base64 encoding of the 32-byte AES-256-GCM
	// key that encrypts signing keys at rest. env-injected, never logged.
	MasterKeyBase64 string `json:",env=AC_MASTER_KEY"`

	Issuer               string
	JWKSCacheTTL         time.Duration `json:",default=5m"`
	ClockSkewWindow      time.Duration `json:",default=5m"`
	AccessTokenTTL       time.Duration `json:",default=15m"`
	MeetingTokenTTL      time.Duration `json:",default=4h"`
	GuestTokenTTL        time.Duration `json:",default=4h"`
	RotationGraceWindow  time.Duration `json:",default=10m"`
}

// MasterKey is a redacting Box type for the decoded master key. Config does
// not hold one: the key is kept only as the plain MasterKeyBase64 string,
// which is not redacted when the config is printed.
type MasterKey = secret.Box[[]byte]
