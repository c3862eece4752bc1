// Package jwksclient implements JWKS distribution and caching: fetch AC's
// published key set over HTTP, cache by kid with an absolute TTL, and
// verify tokens against it without calling AC on every request.
package jwksclient

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/singleflight"

	"github.com/meetmesh/control-plane/internal/common/cperr"
)

// Jwk is a single entry of an RFC 7517 key set, restricted to the OKP/EdDSA
// shape AC ever publishes.
type Jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	X   string `json:"x"`
}

type jwksDocument struct {
	Keys []Jwk `json:"keys"`
}

const defaultFetchTimeout = 10 * time.Second

// Client fetches and caches AC's JWKS document. The zero value is not
// usable; construct with New.
//
// Concurrency: a single RWMutex protects the cache map and its expiry.
// Concurrent refetches triggered by concurrent misses are coalesced through
// a singleflight.Group so only one HTTP round trip happens per miss burst.
type Client struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration

	mu      sync.RWMutex
	keys    map[string]Jwk
	expires time.Time

	group singleflight.Group
}

func New(jwksURL string, ttl time.Duration) *Client {
	return &Client{
		url:        jwksURL,
		httpClient: &http.Client{Timeout: defaultFetchTimeout},
		ttl:        ttl,
	}
}

// Get resolves a kid to a public key, refetching at most once on a cache
// miss: an expired/empty cache refetches and retries the lookup exactly
// once; a fresh cache that simply lacks the kid returns
// InvalidToken without refetching (an unknown kid is treated as an attack
// signal, not a rotation race).
func (c *Client) Get(ctx context.Context, kid string) (ed25519.PublicKey, error) {
	c.mu.RLock()
	fresh := time.Now().Before(c.expires)
	jwk, found := c.keys[kid]
	c.mu.RUnlock()

	if fresh {
		if !found {
			return nil, cperr.New(cperr.InvalidToken, fmt.Errorf("unknown kid %q in fresh cache", kid))
		}
		return decodePublicKey(jwk)
	}

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	jwk, found = c.keys[kid]
	c.mu.RUnlock()
	if !found {
		return nil, cperr.New(cperr.InvalidToken, fmt.Errorf("unknown kid %q after refetch", kid))
	}
	return decodePublicKey(jwk)
}

// Refresh forces a refetch, exposed for operational use and tests.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

func (c *Client) refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		doc, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		keys := make(map[string]Jwk, len(doc.Keys))
		for _, k := range doc.Keys {
			keys[k.Kid] = k
		}
		c.mu.Lock()
		c.keys = keys
		c.expires = time.Now().Add(c.ttl)
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

func (c *Client) fetch(ctx context.Context) (*jwksDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, cperr.New(cperr.ServiceUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logx.Errorf("jwks fetch failed: %v", err)
		return nil, cperr.New(cperr.ServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, cperr.Newf(cperr.ServiceUnavailable, "jwks endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cperr.New(cperr.ServiceUnavailable, err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, cperr.New(cperr.ServiceUnavailable, fmt.Errorf("malformed jwks document: %w", err))
	}
	return &doc, nil
}

func decodePublicKey(jwk Jwk) (ed25519.PublicKey, error) {
	if jwk.Kty != "OKP" {
		return nil, cperr.Newf(cperr.InvalidToken, "unsupported kty %q", jwk.Kty)
	}
	if jwk.Alg != "" && jwk.Alg != "EdDSA" {
		return nil, cperr.Newf(cperr.InvalidToken, "unsupported alg %q", jwk.Alg)
	}
	raw, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, cperr.New(cperr.InvalidToken, fmt.Errorf("malformed jwk x value"))
	}
	return ed25519.PublicKey(raw), nil
}
