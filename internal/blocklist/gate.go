// Package blocklist decides whether an email address is barred from
// signup and login, based on two flat lists (exact emails and domains)
// held in an external blob store.
package blocklist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Gate answers the blocked-or-not question for an email address.
//
// Matching is case-insensitive, either on the full address or on the domain
// part. An address that does not split into exactly one local-part/domain
// pair is treated as not blocked: parsing fails open, while a failed list
// fetch fails closed. That asymmetry is inherited behavior and load-bearing;
// callers that cannot fetch the lists must deny, not allow.
type Gate struct {
	store  Store
	logger *slog.Logger
}

// GateOption configures the Gate.
type GateOption func(*Gate)

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a Gate backed by the given store.
func NewGate(store Store, opts ...GateOption) (*Gate, error) {
	if store == nil {
		return nil, fmt.Errorf("blocklist store is required")
	}
	g := &Gate{store: store}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// IsBlocked reports whether the email is on either list. Both lists are
// fetched fresh per check, in parallel.
func (g *Gate) IsBlocked(ctx context.Context, email string) (bool, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		// Malformed address: not blocked. See the type comment.
		return false, nil
	}
	domain := parts[1]

	var domains, emails []string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		domains, err = g.store.FetchBlockedDomains(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		emails, err = g.store.FetchBlockedEmails(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		if g.logger != nil {
			g.logger.ErrorContext(ctx, "blocklist fetch failed", "error", err)
		}
		return false, err
	}

	return containsFold(domains, domain) || containsFold(emails, email), nil
}

func containsFold(entries []string, candidate string) bool {
	for _, entry := range entries {
		if strings.EqualFold(entry, candidate) {
			return true
		}
	}
	return false
}
