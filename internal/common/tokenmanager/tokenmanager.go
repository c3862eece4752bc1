// Package tokenmanager implements the worker token lifecycle: acquire a
// client-credentials token from AC, refresh it at ~80% of lifetime in the
// background, and hand it to callers through Current, which reads an
// atomically swapped pointer that only the refresher writes.
// It is one of the two legitimate process-wide singletons in this
// codebase (the other is the Prometheus registry) — constructed once at
// startup, written only by its own refresher goroutine.
package tokenmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
	refreshAt  = 0.8 // fraction of lifetime at which to refresh
)

// Token is the current bearer token and its absolute expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

func (t Token) expired() bool { return time.Now().After(t.ExpiresAt) }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Manager runs the background acquire/refresh loop. Construct with New,
// then call Start once, which blocks on the first acquisition (a timeout
// here is a fatal startup error) before returning.
type Manager struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	current atomic.Pointer[Token]
}

func New(tokenURL, clientID, clientSecret string) *Manager {
	return &Manager{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Current returns the most recently acquired token. It is safe to call
// concurrently from any number of goroutines; it never blocks.
func (m *Manager) Current() (Token, bool) {
	t := m.current.Load()
	if t == nil {
		return Token{}, false
	}
	return *t, true
}

// Start blocks on the first token acquisition, retrying with exponential
// backoff up to startupTimeout, then launches the background refresh loop
// and returns. A failure to acquire within startupTimeout is returned to
// the caller as a fatal startup error.
func (m *Manager) Start(ctx context.Context, startupTimeout time.Duration) error {
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	backoff := minBackoff
	for {
		tok, err := m.acquire(startCtx)
		if err == nil {
			m.current.Store(&tok)
			go m.refreshLoop(ctx, tok)
			return nil
		}

		logx.Errorf("initial token acquisition failed: %v", err)
		select {
		case <-startCtx.Done():
			return fmt.Errorf("token manager: no token acquired within %s: %w", startupTimeout, err)
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func (m *Manager) refreshLoop(ctx context.Context, last Token) {
	backoff := minBackoff
	for {
		wait := time.Until(last.ExpiresAt.Add(-refreshSlack(last)))
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		tok, err := m.acquire(ctx)
		if err != nil {
			logx.Errorf("token refresh failed, current token still valid until %s: %v", last.ExpiresAt, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = minBackoff
		last = tok
		m.current.Store(&tok)
	}
}

// refreshSlack returns the delay-from-expiry at which a refresh fires: 20%
// of the token's total lifetime before expiry, i.e. refresh at 80% life.
func refreshSlack(t Token) time.Duration {
	lifetime := time.Until(t.ExpiresAt)
	if lifetime <= 0 {
		return 0
	}
	return time.Duration(float64(lifetime) * (1 - refreshAt))
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func (m *Manager) acquire(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, fmt.Errorf("malformed token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("token response missing access_token")
	}

	return Token{
		Value:     tr.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
