package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
)

// expirySkew renews a token slightly before the gateway would reject it.
const expirySkew = 30 * time.Second

var ErrEmptyToken = errors.New("gateway returned an empty access token")

type cachedToken struct {
	value     string
	expiresAt time.Time
}

func (t *cachedToken) valid(now time.Time) bool {
	return t != nil && t.value != "" && now.Before(t.expiresAt.Add(-expirySkew))
}

// TokenSource owns the process-wide bearer token. Callers holding a valid
// token only take the read lock; a refresh happens under the write lock so
// concurrent callers wait for, and then reuse, a single new token.
type TokenSource struct {
	endpoint     string
	clientID     string
	clientSecret string
	scope        string
	timeout      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
	now          func() time.Time

	mu     sync.RWMutex
	cached *cachedToken
}

func NewTokenSource(endpoint, clientID, clientSecret, scope string, timeout time.Duration, httpClient *http.Client, logger *slog.Logger) *TokenSource {
	return &TokenSource{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		timeout:      timeout,
		httpClient:   httpClient,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()

	if cached.valid(s.now()) {
		return cached.value, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another caller may have refreshed while we waited for the lock
	if s.cached.valid(s.now()) {
		return s.cached.value, nil
	}

	token, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}

	obtainedAt := s.now()
	s.cached = &cachedToken{
		value:     token.AccessToken,
		expiresAt: obtainedAt.Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	s.logger.Info("gateway token refreshed", "expires_in", token.ExpiresIn)
	return s.cached.value, nil
}

// Invalidate drops the cached token so the next caller re-authenticates.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *TokenSource) fetch(ctx context.Context) (*gatewaytypes.Token, error) {
	payload, err := json.Marshal(map[string]string{
		"grant_type": "authorization_code",
		"scope":      s.scope,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("gateway token request failed", "error", err)
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("gateway authentication rejected", "status_code", resp.StatusCode)
		return nil, newAPIError(resp.StatusCode, body)
	}

	var token gatewaytypes.Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if token.AccessToken == "" {
		return nil, ErrEmptyToken
	}

	return &token, nil
}
