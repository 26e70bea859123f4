package auth

import (
	"time"

	"github.com/BradenHooton/mybiotracker/internal/models"
)

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy decides when repeated failures lock an account
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy locks for 15 minutes after 5 consecutive failures
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		Threshold: DefaultLockoutThreshold,
		Duration:  DefaultLockoutDuration,
	}
}

// LockState is the result of MayAttempt
type LockState struct {
	Locked     bool
	Until      time.Time
	RetryAfter time.Duration
}

// Err returns an *models.AccountLockedError for a locked state, nil otherwise
func (s LockState) Err() error {
	if !s.Locked {
		return nil
	}
	return &models.AccountLockedError{RetryAfter: s.RetryAfter}
}

// MayAttempt reports whether the account is locked at now. A lock whose expiry
// is not strictly after now counts as unlocked.
func (p LockoutPolicy) MayAttempt(account *models.Account, now time.Time) LockState {
	if account.LockedUntil == nil || !account.LockedUntil.After(now) {
		return LockState{}
	}
	return LockState{
		Locked:     true,
		Until:      *account.LockedUntil,
		RetryAfter: account.LockedUntil.Sub(now),
	}
}

// RecordFailure counts one failed attempt and locks the account when the
// threshold is reached. A lock that already expired is cleared first and the
// count starts over. Returns true if this call locked the account.
func (p LockoutPolicy) RecordFailure(account *models.Account, now time.Time) bool {
	if account.LockedUntil != nil && !account.LockedUntil.After(now) {
		account.LockedUntil = nil
		account.FailedLoginAttempts = 0
	}

	account.FailedLoginAttempts++

	if account.FailedLoginAttempts >= p.Threshold && account.LockedUntil == nil {
		until := now.Add(p.Duration)
		account.LockedUntil = &until
		return true
	}
	return false
}

// RecordSuccess resets the counter, clears any lock and stamps the login time
func (p LockoutPolicy) RecordSuccess(account *models.Account, now time.Time) {
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	t := now
	account.LastLogin = &t
}
