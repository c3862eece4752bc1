// Package jwtclaims defines the claim shapes AC issues and every verifier
// parses, along with the size and clock-skew constants shared across
// services. Claims are a tagged record with required fields and a small
// set of optional ones; unknown kty/alg are rejected explicitly by the
// verifier, not tolerated.
package jwtclaims

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Size guards: AC enforces the tighter bound on tokens it mints; GC and
// MC, which only ever verify, enforce the looser one.
const (
	MaxSizeAC    = 4 * 1024
	MaxSizeEdge  = 8 * 1024
	ClockSkewCap = 10 * time.Minute
)

// ParticipantType and Role enumerate the values a meeting token carries.
// Nothing in this package rejects other values; AC's internal-token
// handler maps any unrecognized input to guest.
type ParticipantType string

const (
	ParticipantMember   ParticipantType = "member"
	ParticipantExternal ParticipantType = "external"
	ParticipantGuest    ParticipantType = "guest"
)

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
	RoleGuest       Role = "guest"
)

// Claims is the single claim shape used for every token kind AC issues.
// Meeting/guest-only fields are omitted on a plain user or service token.
type Claims struct {
	Subject     string `json:"sub"`
	ServiceType string `json:"service_type,omitempty"`
	Scope       string `json:"scope"`

	MeetingID      string          `json:"meeting_id,omitempty"`
	MeetingOrgID   string          `json:"meeting_org_id,omitempty"`
	HomeOrgID      string          `json:"home_org_id,omitempty"`
	ParticipantType ParticipantType `json:"participant_type,omitempty"`
	Role           Role            `json:"role,omitempty"`
	Capabilities   []string        `json:"capabilities,omitempty"`
	JTI            string          `json:"jti,omitempty"`

	jwt.RegisteredClaims
}

// Scopes splits the space-separated scope claim.
func (c Claims) Scopes() []string {
	if c.Scope == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(c.Scope); i++ {
		if i == len(c.Scope) || c.Scope[i] == ' ' {
			if i > start {
				out = append(out, c.Scope[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// HasScope reports whether any of the claim's scopes equals want.
func (c Claims) HasScope(want string) bool {
	for _, s := range c.Scopes() {
		if s == want {
			return true
		}
	}
	return false
}

// ValidateIssuedAt enforces the clock-skew window: iat must not be more
// than skew in the future. It does not check expiry — the JWT library's
// own exp validation covers that.
func ValidateIssuedAt(iat time.Time, now time.Time, skew time.Duration) error {
	if iat.After(now.Add(skew)) {
		return fmt.Errorf("iat %s is beyond the %s clock-skew window", iat, skew)
	}
	return nil
}
