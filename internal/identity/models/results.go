package models

import "time"

// SignupOutcome is the result of evaluating a signup request.
type SignupOutcome string

const (
	// SignupAccepted means the captcha passed and the address is allowed.
	SignupAccepted SignupOutcome = "accepted"
	// SignupCaptchaRejected means the captcha oracle rejected the token.
	SignupCaptchaRejected SignupOutcome = "captcha_rejected"
	// SignupCaptchaUnavailable means the captcha oracle could not be reached
	// or answered garbage.
	SignupCaptchaUnavailable SignupOutcome = "captcha_unavailable"
	// SignupEmailBlocked means the address matched the blocklist, or the
	// blocklist could not be fetched and the conservative answer applied.
	SignupEmailBlocked SignupOutcome = "email_blocked"
)

// EmailOutcome is the result of a standalone email check.
type EmailOutcome string

const (
	EmailAllowed EmailOutcome = "allowed"
	EmailBlocked EmailOutcome = "blocked"
)

// LoginOutcome is the result of evaluating one login attempt.
type LoginOutcome string

const (
	// LoginAllowed means the attempt may proceed.
	LoginAllowed LoginOutcome = "allowed"
	// LoginBlocked means the address is blocklisted or the blocklist could
	// not be consulted.
	LoginBlocked LoginOutcome = "blocked"
	// LoginStillLocked means a previously placed lockout has not elapsed.
	LoginStillLocked LoginOutcome = "still_locked"
	// LoginLockedNow means this attempt crossed the threshold.
	LoginLockedNow LoginOutcome = "locked_now"
	// LoginWrongPassword means the password was wrong, account not locked yet.
	LoginWrongPassword LoginOutcome = "wrong_password"
)

// LoginAttempt is one password attempt plus whatever throttle state the
// caller already holds. Nil state fields mean "unknown"; the service fills
// them from the directory when both are absent.
type LoginAttempt struct {
	Email                string
	ObjectID             string
	PasswordCorrect      bool
	IncorrectAttempts    *int
	NextLoginEnabledTime *time.Time
}

// StateCarried reports whether the attempt already carries throttle state,
// meaning no directory read is needed.
func (a LoginAttempt) StateCarried() bool {
	return a.IncorrectAttempts != nil || a.NextLoginEnabledTime != nil
}

// LoginResult is the decision for one attempt. Remaining is only meaningful
// for LoginWrongPassword, LockedUntil for the two locked outcomes.
type LoginResult struct {
	Outcome     LoginOutcome
	Remaining   int
	LockedUntil *time.Time
}
