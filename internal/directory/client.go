package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"idguard/internal/platform/config"
	dErrors "idguard/pkg/domain-errors"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "idguard_directory_request_seconds",
		Help: "Duration of directory API requests in seconds",
	}, []string{"operation"})
	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idguard_directory_request_errors_total",
		Help: "Total number of failed directory API requests",
	}, []string{"operation"})
)

// Account is the slice of a directory user this service cares about.
// IncorrectAttempts and NextLoginEnabledTime come from tenant-specific
// extension attributes; the client maps them by their configured names.
type Account struct {
	ObjectID             string
	AccountEnabled       bool
	IncorrectAttempts    int
	NextLoginEnabledTime *time.Time
}

// AccountPatch describes a partial update to an account. Nil fields are left
// untouched. ClearNextLoginTime removes the stored lock timestamp, which the
// directory models as writing an empty string to the extension attribute.
type AccountPatch struct {
	IncorrectAttempts    *int
	NextLoginEnabledTime *time.Time
	ClearNextLoginTime   bool
	AccountEnabled       *bool
}

func (p AccountPatch) isZero() bool {
	return p.IncorrectAttempts == nil && p.NextLoginEnabledTime == nil &&
		!p.ClearNextLoginTime && p.AccountEnabled == nil
}

// Gateway is the directory surface the identity service consumes.
type Gateway interface {
	GetAccount(ctx context.Context, objectID string) (*Account, error)
	PatchAccount(ctx context.Context, objectID string, patch AccountPatch) error
	DisableAccount(ctx context.Context, objectID string) error
	EnableAccount(ctx context.Context, objectID string) error
}

// Client talks to the external identity directory over its REST API using
// app-only client-credentials tokens.
type Client struct {
	baseURL               string
	attrIncorrectAttempts string
	attrNextLoginTime     string
	httpClient            *http.Client
	tokens                *tokenSource
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
		c.tokens.httpClient = client
	}
}

// NewClient creates a directory client from configuration.
func NewClient(cfg config.DirectoryConfig, opts ...ClientOption) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("directory client credentials are required")
	}
	if cfg.AttrIncorrectAttempts == "" || cfg.AttrNextLoginTime == "" {
		return nil, fmt.Errorf("directory extension attribute names are required")
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	c := &Client{
		baseURL:               cfg.BaseURL,
		attrIncorrectAttempts: cfg.AttrIncorrectAttempts,
		attrNextLoginTime:     cfg.AttrNextLoginTime,
		httpClient:            httpClient,
		tokens:                newTokenSource(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scope, httpClient),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ping verifies token acquisition works, for readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tokens.Token(ctx)
	return err
}

// GetAccount fetches an account by its directory object id.
func (c *Client) GetAccount(ctx context.Context, objectID string) (*Account, error) {
	selectAttrs := url.QueryEscape(fmt.Sprintf("id,accountEnabled,%s,%s", c.attrIncorrectAttempts, c.attrNextLoginTime))
	path := fmt.Sprintf("/users/%s?$select=%s", url.PathEscape(objectID), selectAttrs)

	body, err := c.do(ctx, "get_account", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to decode account response")
	}

	account := &Account{ObjectID: objectID}
	if v, ok := raw["id"]; ok {
		_ = json.Unmarshal(v, &account.ObjectID)
	}
	if v, ok := raw["accountEnabled"]; ok {
		_ = json.Unmarshal(v, &account.AccountEnabled)
	}
	if v, ok := raw[c.attrIncorrectAttempts]; ok {
		if err := json.Unmarshal(v, &account.IncorrectAttempts); err != nil {
			// Some tenants store the counter as a string attribute.
			var s string
			if json.Unmarshal(v, &s) == nil {
				fmt.Sscanf(s, "%d", &account.IncorrectAttempts)
			}
		}
	}
	if v, ok := raw[c.attrNextLoginTime]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil && s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				account.NextLoginEnabledTime = &t
			}
		}
	}

	return account, nil
}

// PatchAccount applies a partial update to an account. A zero patch is a
// no-op and does not hit the directory.
func (c *Client) PatchAccount(ctx context.Context, objectID string, patch AccountPatch) error {
	if patch.isZero() {
		return nil
	}

	payload := map[string]any{}
	if patch.IncorrectAttempts != nil {
		payload[c.attrIncorrectAttempts] = *patch.IncorrectAttempts
	}
	switch {
	case patch.NextLoginEnabledTime != nil:
		payload[c.attrNextLoginTime] = patch.NextLoginEnabledTime.UTC().Format(time.RFC3339)
	case patch.ClearNextLoginTime:
		payload[c.attrNextLoginTime] = ""
	}
	if patch.AccountEnabled != nil {
		payload["accountEnabled"] = *patch.AccountEnabled
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode account patch")
	}

	path := fmt.Sprintf("/users/%s", url.PathEscape(objectID))
	_, err = c.do(ctx, "patch_account", http.MethodPatch, path, body)
	return err
}

// DisableAccount sets accountEnabled to false, blocking directory sign-in.
func (c *Client) DisableAccount(ctx context.Context, objectID string) error {
	enabled := false
	return c.PatchAccount(ctx, objectID, AccountPatch{AccountEnabled: &enabled})
}

// EnableAccount sets accountEnabled to true.
func (c *Client) EnableAccount(ctx context.Context, objectID string) error {
	enabled := true
	return c.PatchAccount(ctx, objectID, AccountPatch{AccountEnabled: &enabled})
}

func (c *Client) do(ctx context.Context, operation, method, path string, body []byte) ([]byte, error) {
	start := time.Now()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		requestErrors.WithLabelValues(operation).Inc()
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create directory request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestErrors.WithLabelValues(operation).Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "directory request failed")
	}
	defer resp.Body.Close()

	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		requestErrors.WithLabelValues(operation).Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to read directory response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Token revoked or expired early; drop the cache so the next call
		// fetches a fresh one.
		c.tokens.invalidate()
		requestErrors.WithLabelValues(operation).Inc()
		return nil, dErrors.New(dErrors.CodeUpstream, "directory rejected the access token")
	case resp.StatusCode == http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "account not found in directory")
	case resp.StatusCode >= 400:
		requestErrors.WithLabelValues(operation).Inc()
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("directory returned %d", resp.StatusCode))
	}

	return respBody, nil
}
