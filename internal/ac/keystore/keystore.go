// Package keystore persists AC's signing keys and drives the
// active → rotating → retired rotation state machine.
package keystore

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zeromicro/go-zero/core/logx"

	accrypto "github.com/meetmesh/control-plane/internal/ac/crypto"
	"github.com/meetmesh/control-plane/internal/common/cperr"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusRotating Status = "rotating"
	StatusRetired  Status = "retired"
)

// SigningKey is the persistent record of one AC signing key.
type SigningKey struct {
	KeyID                string       `db:"key_id"`
	Algorithm            string       `db:"algorithm"`
	PublicKeyPEM         []byte       `db:"public_key_pem"`
	PrivateKeyCiphertext []byte       `db:"private_key_ciphertext"`
	PrivateKeyNonce      []byte       `db:"private_key_nonce"`
	PrivateKeyTag        []byte       `db:"private_key_tag"`
	Status               Status       `db:"status"`
	CreatedAt            time.Time    `db:"created_at"`
	RotatedAt            sql.NullTime `db:"rotated_at"`
}

// Store drives key generation, persistence, and rotation. A single
// in-process mutex serializes rotation attempts so concurrent rotations
// yield exactly one winner and the rest observe "already rotated" rather
// than racing the database.
type Store struct {
	db        *sqlx.DB
	masterKey []byte

	rotateMu   sync.Mutex
	rotating   bool
}

func New(db *sqlx.DB, masterKey []byte) *Store {
	return &Store{db: db, masterKey: masterKey}
}

const (
	insertKeyQuery = `
		INSERT INTO signing_keys
			(key_id, algorithm, public_key_pem, private_key_ciphertext, private_key_nonce, private_key_tag, status, created_at)
		VALUES (:key_id, :algorithm, :public_key_pem, :private_key_ciphertext, :private_key_nonce, :private_key_tag, :status, :created_at)`

	selectActiveKeyQuery = `
		SELECT key_id, algorithm, public_key_pem, private_key_ciphertext, private_key_nonce, private_key_tag, status, created_at, rotated_at
		FROM signing_keys WHERE status = 'active' ORDER BY created_at DESC LIMIT 1`

	selectNonRetiredKeysQuery = `
		SELECT key_id, algorithm, public_key_pem, private_key_ciphertext, private_key_nonce, private_key_tag, status, created_at, rotated_at
		FROM signing_keys WHERE status IN ('active', 'rotating') ORDER BY created_at DESC`

	selectKeyByIDQuery = `
		SELECT key_id, algorithm, public_key_pem, private_key_ciphertext, private_key_nonce, private_key_tag, status, created_at, rotated_at
		FROM signing_keys WHERE key_id = $1`

	demoteActiveToRotatingQuery = `UPDATE signing_keys SET status = 'rotating', rotated_at = $1 WHERE status = 'active'`
	retireRotatingQuery         = `UPDATE signing_keys SET status = 'retired' WHERE status = 'rotating' AND rotated_at < $1`
)

// Bootstrap ensures at least one active key exists, generating and storing
// one if the table is empty. Called once at startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	_, err := s.ActiveKey(ctx)
	if err == nil {
		return nil
	}
	if cperr.KindOf(err) != cperr.NotFound {
		return err
	}
	return s.generateAndStore(ctx, StatusActive)
}

// ActiveKey returns the current active signing key, NotFound if none exists.
func (s *Store) ActiveKey(ctx context.Context) (*SigningKey, error) {
	var k SigningKey
	if err := s.db.GetContext(ctx, &k, selectActiveKeyQuery); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &k, nil
}

// KeyByID resolves a kid to its stored record, used by AC's own local
// verifier (AC verifies against its own keystore rather than JWKS).
func (s *Store) KeyByID(ctx context.Context, keyID string) (*SigningKey, error) {
	var k SigningKey
	if err := s.db.GetContext(ctx, &k, selectKeyByIDQuery, keyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cperr.New(cperr.NotFound, err)
		}
		return nil, cperr.New(cperr.Database, err)
	}
	return &k, nil
}

// PublishableKeys returns every non-retired key for JWKS publication: the
// active key plus any still in the rotating grace window, so in-flight
// tokens signed by the previous key remain verifiable.
func (s *Store) PublishableKeys(ctx context.Context) ([]SigningKey, error) {
	var keys []SigningKey
	if err := s.db.SelectContext(ctx, &keys, selectNonRetiredKeysQuery); err != nil {
		return nil, cperr.New(cperr.Database, err)
	}
	return keys, nil
}

// PrivateKey decrypts and parses the private key for signing.
func (s *Store) PrivateKey(k *SigningKey) (ed25519.PrivateKey, error) {
	plaintext, err := accrypto.Decrypt(s.masterKey, &accrypto.Envelope{
		Ciphertext: k.PrivateKeyCiphertext,
		Nonce:      k.PrivateKeyNonce,
		Tag:        k.PrivateKeyTag,
	})
	if err != nil {
		logx.Errorf("signing key %s failed to decrypt", k.KeyID)
		return nil, err
	}
	return accrypto.ParsePrivateKey(plaintext)
}

// PublicKey parses the stored PEM public key.
func (s *Store) PublicKey(k *SigningKey) (ed25519.PublicKey, error) {
	return accrypto.ParsePublicKeyPEM(k.PublicKeyPEM)
}

// RotationGraceWindow bounds how long a demoted key stays in "rotating"
// before being retired by the sweep.
const RotationGraceWindow = 10 * time.Minute

// Rotate performs a forced or eligibility-triggered rotation: demote the
// current active key to rotating, generate and insert a new active key.
// Concurrent callers must observe exactly one winner; the rest get a
// RateLimited error ("already rotated") rather than racing the table.
func (s *Store) Rotate(ctx context.Context) (*SigningKey, error) {
	if !s.rotateMu.TryLock() {
		return nil, cperr.New(cperr.RateLimited, fmt.Errorf("rotation already in progress"))
	}
	defer s.rotateMu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, cperr.New(cperr.Database, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, demoteActiveToRotatingQuery, time.Now()); err != nil {
		return nil, cperr.New(cperr.Database, err)
	}

	newKey, err := newSigningKey(s.masterKey)
	if err != nil {
		return nil, err
	}
	if _, err := tx.NamedExecContext(ctx, insertKeyQuery, newKey); err != nil {
		return nil, cperr.New(cperr.Database, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, cperr.New(cperr.Database, err)
	}

	logx.Infof("rotated signing key, new active kid=%s", newKey.KeyID)
	return newKey, nil
}

// RetireExpiredRotating demotes any "rotating" key past the grace window
// to "retired". Intended to run on a periodic sweep alongside GC's health
// and cleanup sweeps.
func (s *Store) RetireExpiredRotating(ctx context.Context) error {
	cutoff := time.Now().Add(-RotationGraceWindow)
	if _, err := s.db.ExecContext(ctx, retireRotatingQuery, cutoff); err != nil {
		return cperr.New(cperr.Database, err)
	}
	return nil
}

func (s *Store) generateAndStore(ctx context.Context, status Status) error {
	key, err := newSigningKey(s.masterKey)
	if err != nil {
		return err
	}
	key.Status = status
	if _, err := s.db.NamedExecContext(ctx, insertKeyQuery, key); err != nil {
		return cperr.New(cperr.Database, err)
	}
	return nil
}

func newSigningKey(masterKey []byte) (*SigningKey, error) {
	pair, err := accrypto.GenerateSigningKey()
	if err != nil {
		return nil, err
	}
	env, err := accrypto.Encrypt(masterKey, pair.PrivateKeyPKCS8)
	if err != nil {
		return nil, err
	}
	keyID, err := accrypto.RandomBytes(16)
	if err != nil {
		return nil, err
	}
	return &SigningKey{
		KeyID:                fmt.Sprintf("%x", keyID),
		Algorithm:            "EdDSA",
		PublicKeyPEM:         pair.PublicKeyPEM,
		PrivateKeyCiphertext: env.Ciphertext,
		PrivateKeyNonce:      env.Nonce,
		PrivateKeyTag:        env.Tag,
		Status:               StatusActive,
		CreatedAt:            time.Now(),
	}, nil
}
