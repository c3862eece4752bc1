package model

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

// Repository is AC's sqlx-backed persistence, generalizing the teacher's
// shared/repository.BaseRepository pattern to AC's users/organizations/
// service_clients tables instead of the growth-app's social schema.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const (
	selectUserByEmailQuery = `
		SELECT id, org_id, email, password_hash, display_name, created_at, updated_at
		FROM users WHERE email = $1`

	insertUserQuery = `
		INSERT INTO users (id, org_id, email, password_hash, display_name, created_at, updated_at)
		VALUES (:id, :org_id, :email, :password_hash, :display_name, :created_at, :updated_at)`

	selectServiceClientQuery = `
		SELECT client_id, client_secret_hash, scope, service_type, created_at
		FROM service_clients WHERE client_id = $1`
)

func (r *Repository) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, selectUserByEmailQuery, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	if _, err := r.db.NamedExecContext(ctx, insertUserQuery, u); err != nil {
		return cperr.New(cperr.Database, err)
	}
	return nil
}

func (r *Repository) ServiceClientByID(ctx context.Context, clientID string) (*ServiceClient, error) {
	var c ServiceClient
	if err := r.db.GetContext(ctx, &c, selectServiceClientQuery, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &c, nil
}
