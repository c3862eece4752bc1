// Package session implements the reconnection binding: per-meeting HMAC
// keys derived via HKDF from the process master secret, and
// constant-time-verified HMAC-SHA256 binding tokens.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

const (
	hkdfInfoPrefix = "meetmesh-mc-binding:"
	nonceSize      = 16
	// TTL is the binding-token validity window: accepted at exactly 30s,
	// rejected at 30.001s.
	TTL = 30 * time.Second
)

// Binding is a stored reconnection binding for one participant.
type Binding struct {
	CorrelationID string
	ParticipantID string
	UserID        string
	Nonce         []byte
	Token         string
	IssuedAt      time.Time
}

// DeriveMeetingKey derives a 32-byte per-meeting HMAC key from the process
// master secret via HKDF.
func DeriveMeetingKey(masterSecret []byte, meetingID string) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(hkdfInfoPrefix+meetingID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, cperr.New(cperr.Crypto, err)
	}
	return key, nil
}

// NewBinding generates a fresh (correlation_id, nonce, binding_token)
// triple on join or on a successful reconnect rotation.
func NewBinding(meetingKey []byte, meetingID, participantID, userID string) (*Binding, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, cperr.New(cperr.Crypto, err)
	}

	correlationID := uuid.Must(uuid.NewV7()).String()
	token := compute(meetingKey, meetingID, correlationID, participantID, nonce)

	return &Binding{
		CorrelationID: correlationID,
		ParticipantID: participantID,
		UserID:        userID,
		Nonce:         nonce,
		Token:         token,
		IssuedAt:      time.Now(),
	}, nil
}

func compute(meetingKey []byte, meetingID, correlationID, participantID string, nonce []byte) string {
	mac := hmac.New(sha256.New, meetingKey)
	mac.Write([]byte(meetingID))
	mac.Write([]byte(correlationID))
	mac.Write([]byte(participantID))
	mac.Write(nonce)
	return hex.EncodeToString(mac.Sum(nil))
}

// Error enumerates the session-binding failure variants, collapsed to
// cperr.SessionBinding at the service boundary.
type Error string

const (
	ErrTokenExpired     Error = "token_expired"
	ErrInvalidToken     Error = "invalid_token"
	ErrNonceReused      Error = "nonce_reused"
	ErrSessionNotFound  Error = "session_not_found"
	ErrUserIDMismatch   Error = "user_id_mismatch"
)

func (e Error) Error() string { return string(e) }

// Verify recomputes the HMAC over the stored fields and compares it in
// constant time against the presented token, enforcing the 30s TTL:
// age up to and including TTL is accepted, only age beyond TTL is rejected.
func Verify(meetingKey []byte, meetingID string, stored *Binding, presentedToken string, now time.Time) error {
	if now.Sub(stored.IssuedAt) > TTL {
		return cperr.New(cperr.SessionBinding, ErrTokenExpired)
	}

	expected := compute(meetingKey, meetingID, stored.CorrelationID, stored.ParticipantID, stored.Nonce)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(presentedToken)) != 1 {
		return cperr.New(cperr.SessionBinding, ErrInvalidToken)
	}
	return nil
}
