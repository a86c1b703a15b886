// Package captcha verifies client-supplied CAPTCHA tokens against an
// external verification oracle (reCAPTCHA siteverify style).
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"idguard/internal/platform/config"
	dErrors "idguard/pkg/domain-errors"
)

var checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "idguard_captcha_checks_total",
	Help: "Total number of CAPTCHA verification calls by result",
}, []string{"result"})

// Result is the oracle's verdict for one token.
type Result struct {
	Success    bool
	ErrorCodes []string
}

// Verifier calls the verification endpoint with the shared secret and the
// client-supplied token. A transport or non-2xx failure is an error distinct
// from a well-formed "not valid" verdict; callers map the two to different
// responses. No retries are attempted.
type Verifier struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
}

// VerifierOption configures the Verifier.
type VerifierOption func(*Verifier)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) VerifierOption {
	return func(v *Verifier) {
		v.httpClient = client
	}
}

// NewVerifier creates a Verifier from configuration.
func NewVerifier(cfg config.CaptchaConfig, opts ...VerifierOption) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("captcha secret is required")
	}
	v := &Verifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// verifyResponse is the oracle's JSON response shape.
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks one token. The returned error is non-nil only when the
// oracle itself could not be consulted.
func (v *Verifier) Verify(ctx context.Context, token string) (*Result, error) {
	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create captcha request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		checksTotal.WithLabelValues("api_error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "captcha API call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		checksTotal.WithLabelValues("api_error").Inc()
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("captcha API returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		checksTotal.WithLabelValues("api_error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to read captcha response")
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		checksTotal.WithLabelValues("api_error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to parse captcha response")
	}

	if parsed.Success {
		checksTotal.WithLabelValues("success").Inc()
	} else {
		checksTotal.WithLabelValues("rejected").Inc()
	}

	return &Result{
		Success:    parsed.Success,
		ErrorCodes: parsed.ErrorCodes,
	}, nil
}
