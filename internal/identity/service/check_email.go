package service

import (
	"context"

	"idguard/internal/identity/models"
)

// CheckEmail decides whether an address may continue and, on a blocklist hit,
// disables the backing directory account so the denial outlives this request.
//
// A blocklist fetch failure also denies, but disables nothing: uncertainty is
// not evidence against the account.
func (s *Service) CheckEmail(ctx context.Context, email, objectID string) models.EmailOutcome {
	ctx, span := s.tracer.Start(ctx, "identity.CheckEmail")
	defer span.End()

	blocked, err := s.blocklist.IsBlocked(ctx, email)
	if err != nil {
		s.logger.ErrorContext(ctx, "blocklist unavailable during email check", "error", err, "email", email)
		s.countEmailCheck(models.EmailBlocked)
		return models.EmailBlocked
	}
	if !blocked {
		s.countEmailCheck(models.EmailAllowed)
		return models.EmailAllowed
	}

	s.countBlocklistHit()
	s.audit(ctx, "email_blocked", "email", email, "object_id", objectID)
	s.disableBlocked(ctx, objectID)
	s.countEmailCheck(models.EmailBlocked)
	return models.EmailBlocked
}

// disableBlocked disables the account behind a blocklisted address.
// Best-effort: the denial was already decided, a failed write only loses the
// persistence of it.
func (s *Service) disableBlocked(ctx context.Context, objectID string) {
	if objectID == "" {
		return
	}
	if err := s.directory.DisableAccount(ctx, objectID); err != nil {
		s.logger.ErrorContext(ctx, "failed to disable blocked account", "error", err, "object_id", objectID)
		s.countPatchFailure()
		return
	}
	s.countDisabled()
}
