package service

import (
	"context"

	"idguard/internal/identity/models"
)

// Signup runs the pre-registration gate: captcha first, then the blocklist.
// The blocklist is only consulted after a passing captcha, so the block lists
// never leak information to unverified callers.
func (s *Service) Signup(ctx context.Context, req *models.SignupRequest) models.SignupOutcome {
	ctx, span := s.tracer.Start(ctx, "identity.Signup")
	defer span.End()

	result, err := s.captcha.Verify(ctx, req.Captcha)
	if err != nil {
		s.logger.ErrorContext(ctx, "captcha verification unavailable", "error", err)
		s.countSignup(models.SignupCaptchaUnavailable)
		return models.SignupCaptchaUnavailable
	}
	if !result.Success {
		s.audit(ctx, "signup_captcha_rejected", "email", req.Email, "error_codes", result.ErrorCodes)
		s.countSignup(models.SignupCaptchaRejected)
		return models.SignupCaptchaRejected
	}

	blocked, err := s.blocklist.IsBlocked(ctx, req.Email)
	if err != nil {
		// Cannot consult the blocklist: deny rather than let an unchecked
		// address register.
		s.logger.ErrorContext(ctx, "blocklist unavailable during signup", "error", err, "email", req.Email)
		s.countSignup(models.SignupEmailBlocked)
		return models.SignupEmailBlocked
	}
	if blocked {
		s.countBlocklistHit()
		s.audit(ctx, "signup_email_blocked", "email", req.Email)
		s.countSignup(models.SignupEmailBlocked)
		return models.SignupEmailBlocked
	}

	s.audit(ctx, "signup_accepted", "email", req.Email)
	s.countSignup(models.SignupAccepted)
	return models.SignupAccepted
}
