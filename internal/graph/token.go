package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// tokenURLFormat is the tenant-scoped v2.0 token endpoint.
	//nolint:gosec // G101: Not credentials, OAuth endpoint URL
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// defaultScope grants full application access to the Graph API.
	defaultScope = "https://graph.microsoft.com/.default"

	// tokenExpiryBuffer is subtracted from the reported token lifetime
	// so a token is refreshed before it can expire mid-call.
	tokenExpiryBuffer = 5 * time.Minute
)

// TokenManager acquires and caches an OAuth2 bearer token via the
// client-credentials grant. One instance is shared by all workers; the
// cache is mutex-guarded so only one refresh is ever in flight and
// readers never observe a half-updated token.
type TokenManager struct {
	mu     sync.Mutex
	conf   *clientcredentials.Config
	token  string
	expiry time.Time
}

// NewTokenManager creates a token manager for the given tenant.
func NewTokenManager(tenantID, clientID, clientSecret string) *TokenManager {
	return &TokenManager{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     fmt.Sprintf(tokenURLFormat, tenantID),
			Scopes:       []string{defaultScope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
	}
}

// Acquire returns a valid bearer token, refreshing it first if the
// cached one is absent or inside the expiry buffer.
func (m *TokenManager) Acquire(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiry) {
		return m.token, nil
	}

	// conf.Token builds a fresh source each call, so exactly one token
	// endpoint request happens per refresh.
	tok, err := m.conf.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", fmt.Errorf("%w: token endpoint status %d: %s",
				ErrAuthentication, retrieveErr.Response.StatusCode,
				strings.TrimSpace(string(retrieveErr.Body)))
		}
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	m.token = tok.AccessToken
	m.expiry = tok.Expiry.Add(-tokenExpiryBuffer)

	return m.token, nil
}

// TokenURL returns the token endpoint this manager authenticates against.
func (m *TokenManager) TokenURL() string {
	return m.conf.TokenURL
}
