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
	"net/url"
	"time"

	gatewaytypes "github.com/frahmantamala/subscription-sales/internal/core/datamodel/gateway"
)

const (
	maxResponseBytes = 1 << 20
	defaultTimeout   = 30 * time.Second
	searchPageLimit  = "100"
)

var ErrMalformedResponse = errors.New("malformed gateway response")

// APIError is returned when the gateway answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway returned status %d", e.StatusCode)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Code: http.StatusText(status)}

	var parsed struct {
		Error        *gatewaytypes.ErrorBody `json:"error"`
		ErrorMessage string                  `json:"errorMessage"`
		ErrorCode    string                  `json:"errorCode"`
		Message      string                  `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Error != nil && parsed.Error.Message != "":
			apiErr.Message = parsed.Error.Message
		case parsed.ErrorMessage != "":
			apiErr.Message = parsed.ErrorMessage
		default:
			apiErr.Message = parsed.Message
		}
		if parsed.ErrorCode != "" {
			apiErr.Code = parsed.ErrorCode
		}
	}

	return apiErr
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scope        string
	Timeout      time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock replaces the clock used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client talks to the payment gateway. It is safe for concurrent use and is
// meant to be constructed once and shared.
type Client struct {
	baseURL    *url.URL
	timeout    time.Duration
	httpClient *http.Client
	tokens     *TokenSource
	logger     *slog.Logger
	now        func() time.Time
}

func NewClient(config Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base url: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid gateway base url: %q", config.BaseURL)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}

	client.tokens = NewTokenSource(
		client.endpoint("token"),
		config.ClientID,
		config.ClientSecret,
		config.Scope,
		timeout,
		client.httpClient,
		logger,
	)
	client.tokens.now = client.now

	return client, nil
}

func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

func (c *Client) endpoint(path ...string) string {
	return c.baseURL.JoinPath(path...).String()
}

// FindCustomersByEmail lists gateway customers registered with email.
func (c *Client) FindCustomersByEmail(ctx context.Context, email string) ([]gatewaytypes.Customer, error) {
	query := url.Values{}
	query.Set("emails", email)
	query.Set("startAt", "0")
	query.Set("limit", searchPageLimit)

	var resp gatewaytypes.CustomerSearchResponse
	if err := c.do(ctx, http.MethodGet, query, nil, &resp, "customers"); err != nil {
		return nil, err
	}

	c.logger.Debug("gateway customer search finished", "found", len(resp.Customers))
	return resp.Customers, nil
}

func (c *Client) CreateCustomer(ctx context.Context, req gatewaytypes.CustomerRequest) (*gatewaytypes.Customer, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, nil, req, &raw, "customers"); err != nil {
		return nil, err
	}

	var envelope gatewaytypes.CustomerEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Customer != nil {
		return envelope.Customer, nil
	}

	var customer gatewaytypes.Customer
	if err := json.Unmarshal(raw, &customer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &customer, nil
}

func (c *Client) CreateSubscription(ctx context.Context, req gatewaytypes.SubscriptionRequest) (*gatewaytypes.Subscription, error) {
	c.logger.Info("creating gateway subscription", "plan_id", req.PlanID, "my_id", req.MyID)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, nil, req, &raw, "subscriptions"); err != nil {
		return nil, err
	}
	return decodeSubscription(raw)
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*gatewaytypes.Subscription, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, nil, nil, &raw, "subscriptions", subscriptionID); err != nil {
		return nil, err
	}
	return decodeSubscription(raw)
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string, req gatewaytypes.CancelSubscriptionRequest) (*gatewaytypes.Subscription, error) {
	c.logger.Info("cancelling gateway subscription", "subscription_id", subscriptionID)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, nil, req, &raw, "subscriptions", subscriptionID, "cancel"); err != nil {
		return nil, err
	}
	return decodeSubscription(raw)
}

func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, req gatewaytypes.UpdateSubscriptionRequest) (*gatewaytypes.Subscription, error) {
	c.logger.Info("updating gateway subscription", "subscription_id", subscriptionID)

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, nil, req, &raw, "subscriptions", subscriptionID); err != nil {
		return nil, err
	}
	return decodeSubscription(raw)
}

// decodeSubscription accepts both the {"type":true,"Subscription":{...}}
// envelope and a flat subscription body.
func decodeSubscription(raw json.RawMessage) (*gatewaytypes.Subscription, error) {
	var envelope gatewaytypes.SubscriptionEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Subscription != nil {
		return envelope.Subscription, nil
	}

	var flat gatewaytypes.Subscription
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if envelope.Error != nil && flat.ErrorMessage == "" {
		flat.ErrorMessage = envelope.Error.Message
	}
	if flat.Status == "" && flat.GalaxPayID == 0 && flat.ErrorMessage == "" {
		return nil, fmt.Errorf("%w: no subscription in body", ErrMalformedResponse)
	}
	return &flat, nil
}

func (c *Client) do(ctx context.Context, method string, query url.Values, body, out any, path ...string) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("gateway authentication failed: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal gateway request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL.JoinPath(path...)
	if query != nil {
		target.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed", "method", method, "path", target.Path, "error", err)
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	c.logger.Debug("gateway response",
		"method", method,
		"path", target.Path,
		"status_code", resp.StatusCode,
		"duration_ms", c.now().Sub(start).Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, raw)
		c.logger.Error("gateway returned error status",
			"method", method,
			"path", target.Path,
			"status_code", resp.StatusCode,
			"message", apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
