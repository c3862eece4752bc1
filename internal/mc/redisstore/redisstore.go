// Package redisstore implements fenced Redis writes: every mutation to a
// meeting's record is guarded by a Lua script that compares the caller's
// generation against the stored one, so a stale MC revived after a
// partition cannot overwrite a live MC's state.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

// casScript implements the generation compare-and-set: KEYS[1] is the
// generation key, KEYS[2] the payload key, ARGV[1] the caller's
// generation, ARGV[2] the payload (empty string means "delete"). Returns 1
// (applied), 0 (fenced out by an equal-or-higher stored generation).
//
// The writing MC's meeting actor increments its own generation before
// every write (meetingActor.nextGeneration in internal/mc/actor), so this
// script only ever needs a strict greater-than check against what is
// currently stored.
const casScript = `
local stored = tonumber(redis.call('GET', KEYS[1]) or '0')
local caller = tonumber(ARGV[1])
if caller <= stored then
  return 0
end
redis.call('SET', KEYS[1], caller)
if ARGV[2] == '' then
  redis.call('DEL', KEYS[2])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`

const casDeleteScript = `
local stored = tonumber(redis.call('GET', KEYS[1]) or '0')
local caller = tonumber(ARGV[1])
if caller <= stored then
  return 0
end
redis.call('SET', KEYS[1], caller)
redis.call('DEL', KEYS[2])
redis.call('DEL', KEYS[3])
return 1
`

type Store struct {
	client     *redis.Client
	cas        *redis.Script
	casDelete  *redis.Script
}

func New(client *redis.Client) *Store {
	return &Store{
		client:    client,
		cas:       redis.NewScript(casScript),
		casDelete: redis.NewScript(casDeleteScript),
	}
}

func generationKey(meetingID string) string { return fmt.Sprintf("meeting:%s:generation", meetingID) }
func mhKey(meetingID string) string          { return fmt.Sprintf("meeting:%s:mh", meetingID) }
func stateKey(meetingID string) string       { return fmt.Sprintf("meeting:%s:state", meetingID) }

// MhRecord is the JSON value stored at meeting:{id}:mh.
type MhRecord struct {
	PrimaryID       string `json:"primary_id"`
	PrimaryEndpoint string `json:"primary_endpoint"`
	BackupID        string `json:"backup_id,omitempty"`
	BackupEndpoint  string `json:"backup_endpoint,omitempty"`
}

// WriteMh persists the MH assignment on admission from GC, fenced by
// generation.
func (s *Store) WriteMh(ctx context.Context, meetingID string, generation int64, rec MhRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return cperr.New(cperr.Internal, err)
	}
	return s.run(ctx, s.cas, meetingID, generation, mhKey(meetingID), string(payload))
}

// WriteState persists meeting state scalars on material changes, fenced by
// generation. fields is flattened as a JSON blob and stored under one key,
// avoiding a second round trip per field.
func (s *Store) WriteState(ctx context.Context, meetingID string, generation int64, fields map[string]string) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return cperr.New(cperr.Internal, err)
	}
	return s.run(ctx, s.cas, meetingID, generation, stateKey(meetingID), string(payload))
}

// Delete removes the meeting's record on end, fenced by generation.
func (s *Store) Delete(ctx context.Context, meetingID string, generation int64) error {
	keys := []string{generationKey(meetingID), mhKey(meetingID), stateKey(meetingID)}
	res, err := s.casDelete.Run(ctx, s.client, keys, generation).Int64()
	if err != nil {
		return cperr.New(cperr.Redis, err)
	}
	return interpretResult(res)
}

func (s *Store) run(ctx context.Context, script *redis.Script, meetingID string, generation int64, payloadKey, payload string) error {
	keys := []string{generationKey(meetingID), payloadKey}
	res, err := script.Run(ctx, s.client, keys, generation, payload).Int64()
	if err != nil {
		return cperr.New(cperr.Redis, err)
	}
	return interpretResult(res)
}

// interpretResult maps the Lua script's return value to the Go error
// contract: 1 applied, 0 fenced out (never retry), negative a storage
// error surfaced to the caller as Redis.
func interpretResult(res int64) error {
	switch {
	case res == 1:
		return nil
	case res == 0:
		return cperr.New(cperr.FencedOut, nil)
	default:
		return cperr.Newf(cperr.Redis, "cas script returned %d", res)
	}
}

// CurrentGeneration reads the stored generation for a meeting, used by a
// recovering MC to discover it is behind before attempting any write.
func (s *Store) CurrentGeneration(ctx context.Context, meetingID string) (int64, error) {
	v, err := s.client.Get(ctx, generationKey(meetingID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, cperr.New(cperr.Redis, err)
	}
	return v, nil
}
