package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTokenServer serves client-credential token responses and counts
// how many were issued.
func newTokenServer(calls *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":3600}`, n)
	}))
}

func newTestTokenManager(tokenURL string) *TokenManager {
	m := NewTokenManager("tenant-1", "client-1", "secret-1")
	m.conf.TokenURL = tokenURL
	return m
}

func TestTokenManager_CachesToken(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(&calls)
	defer srv.Close()

	m := newTestTokenManager(srv.URL)

	first, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", first)

	second, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, int64(1), calls.Load(), "a cached token must not hit the endpoint")
}

func TestTokenManager_RefreshesInsideExpiryBuffer(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(&calls)
	defer srv.Close()

	m := newTestTokenManager(srv.URL)

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	// Push the cached token inside the refresh window.
	m.mu.Lock()
	m.expiry = time.Now().Add(-time.Minute)
	m.mu.Unlock()

	refreshed, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", refreshed)
	assert.Equal(t, int64(2), calls.Load())
}

func TestTokenManager_SingleRefreshUnderConcurrency(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(&calls)
	defer srv.Close()

	m := newTestTokenManager(srv.URL)

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := range tokens {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.Acquire(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent acquires must share one refresh")
	for _, tok := range tokens {
		assert.Equal(t, "token-1", tok)
	}
}

func TestTokenManager_EndpointRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer srv.Close()

	m := newTestTokenManager(srv.URL)

	_, err := m.Acquire(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestTokenManager_TenantScopedEndpoint(t *testing.T) {
	m := NewTokenManager("contoso.onmicrosoft.com", "client-1", "secret-1")

	assert.Equal(t,
		"https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/token",
		m.TokenURL())
}
