// Package model defines the persistent user/organization shapes that back
// AC's login surface, generalizing shared/models.User/Profile to the
// control plane's identity needs instead of a social-app profile.
package model

import (
	"database/sql"
	"time"
)

type Organization struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type User struct {
	ID           string         `db:"id"`
	OrgID        string         `db:"org_id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	DisplayName  sql.NullString `db:"display_name"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ServiceClient is a GC/MC service-account credential: client_id paired
// with a bcrypt-hashed client_secret, scoped to one service-to-service
// capability.
type ServiceClient struct {
	ClientID         string    `db:"client_id"`
	ClientSecretHash string    `db:"client_secret_hash"`
	Scope            string    `db:"scope"`
	ServiceType      string    `db:"service_type"`
	CreatedAt        time.Time `db:"created_at"`
}
