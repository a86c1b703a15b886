package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"idguard/internal/captcha"
	"idguard/internal/directory"
	"idguard/internal/identity/metrics"
	"idguard/internal/platform/accountlock"
	"idguard/internal/platform/config"
)

// Blocklist answers whether an address is denied outright.
type Blocklist interface {
	IsBlocked(ctx context.Context, email string) (bool, error)
}

// CaptchaVerifier checks a captcha token with the external oracle.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) (*captcha.Result, error)
}

// Directory is the slice of the directory client the service consumes.
type Directory interface {
	GetAccount(ctx context.Context, objectID string) (*directory.Account, error)
	PatchAccount(ctx context.Context, objectID string, patch directory.AccountPatch) error
	DisableAccount(ctx context.Context, objectID string) error
	EnableAccount(ctx context.Context, objectID string) error
}

// AccountLocker serializes the read-modify-write of one account's throttle
// state. The default Noop accepts the race the way the source system does.
type AccountLocker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Service implements the identity gating decisions. Every method returns a
// total outcome: collaborator failures fold into the conservative policy
// answer instead of surfacing as errors.
type Service struct {
	blocklist Blocklist
	captcha   CaptchaVerifier
	directory Directory
	locker    AccountLocker
	lockout   config.LockoutConfig
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker installs a per-account mutex around validate-login's
// read-modify-write.
func WithLocker(locker AccountLocker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(blocklist Blocklist, captchaVerifier CaptchaVerifier, dir Directory, lockout config.LockoutConfig, opts ...Option) (*Service, error) {
	if blocklist == nil || captchaVerifier == nil || dir == nil {
		return nil, fmt.Errorf("blocklist, captcha verifier and directory are required")
	}
	if lockout.Threshold < 1 {
		return nil, fmt.Errorf("lockout threshold must be at least 1 (got %d)", lockout.Threshold)
	}

	svc := &Service{
		blocklist: blocklist,
		captcha:   captchaVerifier,
		directory: dir,
		locker:    accountlock.Noop{},
		lockout:   lockout,
		tracer:    otel.Tracer("idguard/identity"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}
