package service

import (
	"context"

	"idguard/internal/clientinfo"
	"idguard/internal/identity/models"
	"idguard/internal/platform/middleware"
)

// Observability helpers for audit logging and metrics. Metrics are optional;
// every helper tolerates a nil collector set.

func (s *Service) audit(ctx context.Context, event string, attributes ...any) {
	args := attributes
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if ip := middleware.GetClientIP(ctx); ip != "" {
		args = append(args, "client_ip", ip)
	}
	if ua := middleware.GetUserAgent(ctx); ua != "" {
		args = append(args, "device", clientinfo.Describe(ua))
	}
	args = append(args, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) countSignup(outcome models.SignupOutcome) {
	if s.metrics != nil {
		s.metrics.SignupChecks.WithLabelValues(string(outcome)).Inc()
	}
}

func (s *Service) countLogin(outcome models.LoginOutcome) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(string(outcome)).Inc()
	}
}

func (s *Service) countEmailCheck(outcome models.EmailOutcome) {
	if s.metrics != nil {
		s.metrics.EmailChecks.WithLabelValues(string(outcome)).Inc()
	}
}

func (s *Service) countBlocklistHit() {
	if s.metrics != nil {
		s.metrics.BlocklistHits.Inc()
	}
}

func (s *Service) countLockout() {
	if s.metrics != nil {
		s.metrics.Lockouts.Inc()
	}
}

func (s *Service) countDisabled() {
	if s.metrics != nil {
		s.metrics.AccountsDisabled.Inc()
	}
}

func (s *Service) countEnabled() {
	if s.metrics != nil {
		s.metrics.AccountsEnabled.Inc()
	}
}

func (s *Service) countPatchFailure() {
	if s.metrics != nil {
		s.metrics.DirectoryPatchFailures.Inc()
	}
}
