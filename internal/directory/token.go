package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "idguard/pkg/domain-errors"
)

// expirySkew is subtracted from a token's lifetime so we refresh before the
// directory actually rejects it.
const expirySkew = 30 * time.Second

// tokenSource acquires and caches an app-only access token for the directory
// via the client-credentials grant. Safe for concurrent use.
type tokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

func newTokenSource(tokenURL, clientID, clientSecret, scope string, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Token returns a cached access token, fetching a fresh one when the cache is
// empty or within the expiry skew.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiresAt.Add(-expirySkew)) {
		return ts.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
		"scope":         {ts.scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUpstream, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("token endpoint returned %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUpstream, "failed to decode token response")
	}
	if payload.AccessToken == "" {
		return "", dErrors.New(dErrors.CodeUpstream, "token response contained no access token")
	}

	ts.token = payload.AccessToken
	ts.expiresAt = ts.expiry(payload.AccessToken, payload.ExpiresIn)

	return ts.token, nil
}

// expiry derives the token's expiry from expires_in, falling back to the exp
// claim of the token itself when the endpoint omits it. The claim is read
// without signature verification; we only use it for cache scheduling, the
// directory still validates the token on every call.
func (ts *tokenSource) expiry(token string, expiresIn int) time.Time {
	if expiresIn > 0 {
		return ts.now().Add(time.Duration(expiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	// No usable expiry; cache for a minute so a broken endpoint is not hammered.
	return ts.now().Add(time.Minute)
}

// invalidate drops the cached token, forcing a fresh fetch on the next call.
func (ts *tokenSource) invalidate() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.token = ""
	ts.expiresAt = time.Time{}
}
