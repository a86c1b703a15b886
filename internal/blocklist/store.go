package blocklist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"idguard/internal/platform/config"
	dErrors "idguard/pkg/domain-errors"
)

var (
	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "idguard_blocklist_fetch_seconds",
		Help: "Duration of blocklist blob fetches in seconds",
	}, []string{"blob"})
	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idguard_blocklist_fetch_errors_total",
		Help: "Total number of failed blocklist blob fetches",
	}, []string{"blob"})
)

// Store provides the two flat block lists. Implementations fetch fresh per
// call; any caching is a caller concern.
type Store interface {
	FetchBlockedDomains(ctx context.Context) ([]string, error)
	FetchBlockedEmails(ctx context.Context) ([]string, error)
}

// BlobStore loads the block lists from an external blob store over HTTP.
// A missing blob reads as an empty list; a failed fetch is an error, which
// callers must treat as "cannot determine blocklist", not as "not blocked".
type BlobStore struct {
	baseURL     string
	container   string
	domainsBlob string
	emailsBlob  string
	sasToken    string
	httpClient  *http.Client
}

// BlobStoreOption configures the BlobStore.
type BlobStoreOption func(*BlobStore)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) BlobStoreOption {
	return func(s *BlobStore) {
		s.httpClient = client
	}
}

// NewBlobStore creates a blob-backed Store from configuration.
func NewBlobStore(cfg config.BlocklistConfig, opts ...BlobStoreOption) *BlobStore {
	s := &BlobStore{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		container:   cfg.Container,
		domainsBlob: cfg.BlockedDomainsBlob,
		emailsBlob:  cfg.BlockedEmailsBlob,
		sasToken:    cfg.SASToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BlobStore) FetchBlockedDomains(ctx context.Context) ([]string, error) {
	return s.fetch(ctx, s.domainsBlob)
}

func (s *BlobStore) FetchBlockedEmails(ctx context.Context) ([]string, error) {
	return s.fetch(ctx, s.emailsBlob)
}

// Ping reports whether the blob store is reachable, for readiness checks.
func (s *BlobStore) Ping(ctx context.Context) error {
	_, err := s.fetch(ctx, s.domainsBlob)
	return err
}

func (s *BlobStore) fetch(ctx context.Context, blob string) ([]string, error) {
	start := time.Now()

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, s.container, blob)
	if s.sasToken != "" {
		url += "?" + s.sasToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blob request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		fetchErrors.WithLabelValues(blob).Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, fmt.Sprintf("failed to fetch blob %q", blob))
	}
	defer resp.Body.Close()

	fetchDuration.WithLabelValues(blob).Observe(time.Since(start).Seconds())

	// A blob that does not exist yet is an empty list, not an outage.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		fetchErrors.WithLabelValues(blob).Inc()
		return nil, dErrors.New(dErrors.CodeUpstream, fmt.Sprintf("blob store returned %d for %q", resp.StatusCode, blob))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fetchErrors.WithLabelValues(blob).Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, fmt.Sprintf("failed to read blob %q", blob))
	}

	return splitEntries(string(body)), nil
}

// splitEntries splits blob content into entries, one per line. Entries are
// trimmed of surrounding whitespace (including the CR of CRLF files); the
// source lists are hand-edited and stray whitespace is common.
func splitEntries(content string) []string {
	lines := strings.Split(content, "\n")
	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		if entry := strings.TrimSpace(line); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}
