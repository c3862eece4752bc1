package tokenmanager

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, expiresIn int64, fail *atomic.Bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: expiresIn})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCurrentBeforeStartIsAbsent(t *testing.T) {
	m := New("http://unused", "client", "secret")
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestManagerStartAcquiresToken(t *testing.T) {
	server := tokenServer(t, 3600, nil)
	m := New(server.URL, "client", "secret")

	err := m.Start(t.Context(), time.Second)
	require.NoError(t, err)

	tok, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok.Value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)
}

func TestManagerStartFailsWhenTokenEndpointAlwaysErrors(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := tokenServer(t, 3600, &fail)
	m := New(server.URL, "client", "secret")

	err := m.Start(t.Context(), 100*time.Millisecond)
	assert.Error(t, err)
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestManagerStartRecoversAfterTransientFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := tokenServer(t, 3600, &fail)
	m := New(server.URL, "client", "secret")

	go func() {
		time.Sleep(1200 * time.Millisecond)
		fail.Store(false)
	}()

	err := m.Start(t.Context(), 5*time.Second)
	require.NoError(t, err)
	tok, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok.Value)
}

func TestManagerRefreshesInBackgroundBeforeExpiry(t *testing.T) {
	server := tokenServer(t, 1, nil)
	m := New(server.URL, "client", "secret")

	err := m.Start(t.Context(), time.Second)
	require.NoError(t, err)

	first, _ := m.Current()

	assert.Eventually(t, func() bool {
		tok, _ := m.Current()
		return tok.ExpiresAt.After(first.ExpiresAt)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestTokenExpired(t *testing.T) {
	past := Token{ExpiresAt: time.Now().Add(-time.Minute)}
	future := Token{ExpiresAt: time.Now().Add(time.Minute)}
	assert.True(t, past.expired())
	assert.False(t, future.expired())
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	b := minBackoff
	for i := 0; i < 10; i++ {
		b = nextBackoff(b)
	}
	assert.Equal(t, maxBackoff, b)
}

func TestRefreshSlackIsZeroForExpiredToken(t *testing.T) {
	tok := Token{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.Equal(t, time.Duration(0), refreshSlack(tok))
}

func TestRefreshSlackIsFractionOfLifetime(t *testing.T) {
	tok := Token{ExpiresAt: time.Now().Add(10 * time.Second)}
	slack := refreshSlack(tok)
	assert.Greater(t, slack, time.Duration(0))
	assert.Less(t, slack, 10*time.Second)
}

func TestAcquireRejectsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	m := New(server.URL, "client", "secret")
	_, err := m.acquire(t.Context())
	assert.Error(t, err)
}

func TestAcquireRejectsMissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tokenResponse{ExpiresIn: 10})
	}))
	defer server.Close()

	m := New(server.URL, "client", "secret")
	_, err := m.acquire(t.Context())
	assert.Error(t, err)
}
