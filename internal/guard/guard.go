// Package guard decides whether authentication attempts may proceed based on
// per-account failure counters and lockout windows. It is a pure state
// transition over the account row; the caller persists the result.
package guard

import (
	"time"

	"secwatch/internal/model"
)

// Guard holds the lockout policy.
type Guard struct {
	maxAttempts int
	lockFor     time.Duration
}

// New constructs a guard with the given threshold and lockout duration.
func New(maxAttempts int, lockFor time.Duration) Guard {
	return Guard{maxAttempts: maxAttempts, lockFor: lockFor}
}

// Check reports whether the account is currently locked out and until when.
// A lockout refuses authentication regardless of password correctness.
func (g Guard) Check(u *model.User, now time.Time) (bool, time.Time) {
	if u.LockedUntil != nil && u.LockedUntil.After(now) {
		return true, *u.LockedUntil
	}
	return false, time.Time{}
}

// RecordFailure increments the attempt counter and, when the threshold is
// reached, sets the lockout expiry. Returns true when this failure triggered
// the lockout so the caller can emit a suspicious-activity event.
func (g Guard) RecordFailure(u *model.User, now time.Time) bool {
	u.LoginAttempts++
	if u.LoginAttempts >= g.maxAttempts {
		until := now.Add(g.lockFor)
		u.LockedUntil = &until
		return true
	}
	return false
}

// RecordSuccess resets the counter, clears any lockout and stamps last login.
func (g Guard) RecordSuccess(u *model.User, now time.Time) {
	u.LoginAttempts = 0
	u.LockedUntil = nil
	t := now
	u.LastLogin = &t
}
