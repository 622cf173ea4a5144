// Package identity supplies bearer tokens for the case-management backend.
// The provider is passed explicitly into every client that needs it; there
// is no package-level singleton.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNoToken marks the distinguished "no credentials available" failure.
// Callers treat it as "no data for this query", never as a crash.
var ErrNoToken = errors.New("identity: no token available")

// TokenProvider hands out a currently-valid bearer token.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, used in tests and local setups where the
// token is issued out of band.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// ClientCredentials obtains tokens from an OAuth2 client-credentials
// endpoint and caches them until shortly before expiry.
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string

	HTTP *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClientCredentialsFromEnv builds a provider from CASEAPI_TOKEN_URL,
// CASEAPI_CLIENT_ID, CASEAPI_CLIENT_SECRET and CASEAPI_SCOPE. When the
// endpoint is not configured but CASEAPI_TOKEN is set, a StaticToken is
// returned instead.
func NewClientCredentialsFromEnv() (TokenProvider, error) {
	if tokenURL := os.Getenv("CASEAPI_TOKEN_URL"); tokenURL != "" {
		return &ClientCredentials{
			TokenURL:     tokenURL,
			ClientID:     os.Getenv("CASEAPI_CLIENT_ID"),
			ClientSecret: os.Getenv("CASEAPI_CLIENT_SECRET"),
			Scope:        os.Getenv("CASEAPI_SCOPE"),
			HTTP:         &http.Client{Timeout: 15 * time.Second},
		}, nil
	}
	if token := os.Getenv("CASEAPI_TOKEN"); token != "" {
		return StaticToken(token), nil
	}
	return nil, errors.New("identity: neither CASEAPI_TOKEN_URL nor CASEAPI_TOKEN is set")
}

// Token implements TokenProvider. A cached token is reused until one minute
// before its reported expiry.
func (p *ClientCredentials) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expires.Add(-1*time.Minute)) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)
	if p.Scope != "" {
		form.Set("scope", p.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %s", ErrNoToken, res.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", ErrNoToken, err)
	}
	if payload.AccessToken == "" {
		return "", ErrNoToken
	}

	p.token = payload.AccessToken
	p.expires = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)

	return p.token, nil
}
