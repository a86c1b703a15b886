package throttle

import (
	"time"

	"idguard/internal/directory"
	"idguard/internal/platform/config"
)

// Verdict is the outcome of evaluating one login attempt against the policy.
type Verdict string

const (
	// VerdictAllow means the attempt may proceed.
	VerdictAllow Verdict = "allow"
	// VerdictStillLocked means a previously placed lock has not elapsed yet.
	VerdictStillLocked Verdict = "still_locked"
	// VerdictWrongPassword means the password was wrong but the account is
	// not locked yet.
	VerdictWrongPassword Verdict = "wrong_password"
	// VerdictLockedNow means this attempt crossed the threshold and the
	// account is locked as of now.
	VerdictLockedNow Verdict = "locked_now"
)

// State is the per-account throttle state as read from the directory.
type State struct {
	IncorrectAttempts    int
	NextLoginEnabledTime *time.Time
}

// Decision is the result of evaluating an attempt. Patches lists the
// directory writes that persist the new state, in order; callers apply them
// one by one so a partial failure keeps earlier writes.
type Decision struct {
	Verdict     Verdict
	Remaining   int
	LockedUntil *time.Time
	Patches     []directory.AccountPatch
}

func intPtr(n int) *int { return &n }

// resetPatch clears the counter and the lock timestamp in one write.
func resetPatch() directory.AccountPatch {
	return directory.AccountPatch{
		IncorrectAttempts:  intPtr(0),
		ClearNextLoginTime: true,
	}
}

// Evaluate applies the lockout policy to one login attempt. It is pure: the
// clock comes in as now, and the directory writes it implies come out as
// Decision.Patches.
//
// Order matters. An elapsed lock is reset before the password verdict is
// considered, so an expired lock followed by a wrong password starts a fresh
// count of one rather than resuming the old count.
func Evaluate(state State, passwordCorrect bool, now time.Time, cfg config.LockoutConfig) Decision {
	var patches []directory.AccountPatch

	if state.NextLoginEnabledTime != nil {
		if now.Before(*state.NextLoginEnabledTime) {
			lockedUntil := *state.NextLoginEnabledTime
			return Decision{
				Verdict:     VerdictStillLocked,
				LockedUntil: &lockedUntil,
			}
		}
		// Lock elapsed: reset persists even when the password below turns
		// out wrong again.
		patches = append(patches, resetPatch())
		state = State{}
	}

	if passwordCorrect {
		if state.IncorrectAttempts > 0 {
			patches = append(patches, resetPatch())
		}
		return Decision{
			Verdict:   VerdictAllow,
			Remaining: cfg.Threshold,
			Patches:   patches,
		}
	}

	attempts := state.IncorrectAttempts + 1
	if attempts >= cfg.Threshold {
		lockedUntil := now.Add(cfg.LockDuration)
		patches = append(patches, directory.AccountPatch{
			IncorrectAttempts:    intPtr(attempts),
			NextLoginEnabledTime: &lockedUntil,
		})
		return Decision{
			Verdict:     VerdictLockedNow,
			LockedUntil: &lockedUntil,
			Patches:     patches,
		}
	}

	patches = append(patches, directory.AccountPatch{IncorrectAttempts: intPtr(attempts)})
	return Decision{
		Verdict:   VerdictWrongPassword,
		Remaining: cfg.Threshold - attempts,
		Patches:   patches,
	}
}
