package service

import (
	"context"

	"idguard/internal/directory"
	"idguard/internal/identity/models"
	"idguard/internal/throttle"
)

// ValidateLogin evaluates one password attempt. Blocklisted addresses are
// rejected before the throttle runs; everything else flows through the
// lockout policy, and the resulting state writes are applied best-effort so
// a directory outage never blocks the already-computed decision.
func (s *Service) ValidateLogin(ctx context.Context, attempt models.LoginAttempt) models.LoginResult {
	ctx, span := s.tracer.Start(ctx, "identity.ValidateLogin")
	defer span.End()

	blocked, err := s.blocklist.IsBlocked(ctx, attempt.Email)
	if err != nil {
		s.logger.ErrorContext(ctx, "blocklist unavailable during login", "error", err, "email", attempt.Email)
		s.countLogin(models.LoginBlocked)
		return models.LoginResult{Outcome: models.LoginBlocked}
	}
	if blocked {
		s.countBlocklistHit()
		s.audit(ctx, "login_email_blocked", "email", attempt.Email, "object_id", attempt.ObjectID)
		s.disableBlocked(ctx, attempt.ObjectID)
		s.countLogin(models.LoginBlocked)
		return models.LoginResult{Outcome: models.LoginBlocked}
	}

	if attempt.ObjectID != "" {
		release, err := s.locker.Acquire(ctx, attempt.ObjectID)
		if err != nil {
			// Proceed unserialized; a rare double-count beats refusing logins.
			s.logger.WarnContext(ctx, "account lock unavailable, continuing unserialized", "error", err, "object_id", attempt.ObjectID)
		} else {
			defer release()
		}
	}

	decision := throttle.Evaluate(s.throttleState(ctx, attempt), attempt.PasswordCorrect, s.now(), s.lockout)
	s.persistDecision(ctx, attempt.ObjectID, decision.Patches)

	result := models.LoginResult{
		Remaining:   decision.Remaining,
		LockedUntil: decision.LockedUntil,
	}
	switch decision.Verdict {
	case throttle.VerdictAllow:
		result.Outcome = models.LoginAllowed
	case throttle.VerdictStillLocked:
		result.Outcome = models.LoginStillLocked
		s.audit(ctx, "login_rejected_locked", "email", attempt.Email, "object_id", attempt.ObjectID, "locked_until", decision.LockedUntil)
	case throttle.VerdictWrongPassword:
		result.Outcome = models.LoginWrongPassword
		s.audit(ctx, "login_wrong_password", "email", attempt.Email, "object_id", attempt.ObjectID, "remaining", decision.Remaining)
	case throttle.VerdictLockedNow:
		result.Outcome = models.LoginLockedNow
		s.countLockout()
		s.audit(ctx, "account_locked", "email", attempt.Email, "object_id", attempt.ObjectID, "locked_until", decision.LockedUntil)
	}

	s.countLogin(result.Outcome)
	return result
}

// throttleState resolves the state the throttle runs against. State carried
// in the request wins; otherwise the directory is read, and an unreadable
// directory degrades to a clean slate so logins keep working.
func (s *Service) throttleState(ctx context.Context, attempt models.LoginAttempt) throttle.State {
	if attempt.StateCarried() {
		state := throttle.State{NextLoginEnabledTime: attempt.NextLoginEnabledTime}
		if attempt.IncorrectAttempts != nil {
			state.IncorrectAttempts = *attempt.IncorrectAttempts
		}
		return state
	}

	if attempt.ObjectID == "" {
		return throttle.State{}
	}

	account, err := s.directory.GetAccount(ctx, attempt.ObjectID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read account state, assuming clean", "error", err, "object_id", attempt.ObjectID)
		return throttle.State{}
	}
	return throttle.State{
		IncorrectAttempts:    account.IncorrectAttempts,
		NextLoginEnabledTime: account.NextLoginEnabledTime,
	}
}

// persistDecision writes the throttle's state changes in order. Failures are
// logged and counted, never retried, and never change the decision.
func (s *Service) persistDecision(ctx context.Context, objectID string, patches []directory.AccountPatch) {
	if objectID == "" || len(patches) == 0 {
		return
	}
	for _, patch := range patches {
		if err := s.directory.PatchAccount(ctx, objectID, patch); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist attempt state", "error", err, "object_id", objectID)
			s.countPatchFailure()
		}
	}
}
