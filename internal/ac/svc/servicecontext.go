package svc

import (
	"encoding/base64"
	"fmt"

	"github.com/meetmesh/control-plane/internal/ac/config"
	"github.com/meetmesh/control-plane/internal/ac/keystore"
	"github.com/meetmesh/control-plane/internal/ac/model"
	"github.com/meetmesh/control-plane/third_party/database"
)

// ServiceContext wires AC's config, persistence, and keystore together,
// generalizing the teacher's thin svc.ServiceContext{Config} to carry the
// dependencies AC's logic layer actually needs.
type ServiceContext struct {
	Config config.Config
	Repo   *model.Repository
	Keys   *keystore.Store
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

	masterKey, err := base64.StdEncoding.DecodeString(c.Auth.MasterKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}

	keys := keystore.New(db, masterKey)

	return &ServiceContext{
		Config: c,
		Repo:   model.NewRepository(db),
		Keys:   keys,
	}, nil
}
