package models

import (
	"slices"
	"strings"
	"time"
)

// Account holds identity and security state for one user
type Account struct {
	ID                  string
	Email               string
	PasswordHash        string
	IsActive            bool
	IsAdmin             bool
	TOTPSecret          *string // nil unless Is2FAEnabled
	Is2FAEnabled        bool
	BackupCodes         []string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasBackupCode reports whether code is in the account's current backup-code set.
// Matching is case-insensitive.
func (a *Account) HasBackupCode(code string) bool {
	return a.backupCodeIndex(code) >= 0
}

// RemoveBackupCode removes exactly one matching code and reports whether it did
func (a *Account) RemoveBackupCode(code string) bool {
	idx := a.backupCodeIndex(code)
	if idx < 0 {
		return false
	}
	a.BackupCodes = slices.Delete(slices.Clone(a.BackupCodes), idx, idx+1)
	return true
}

func (a *Account) backupCodeIndex(code string) int {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return -1
	}
	for i, c := range a.BackupCodes {
		if strings.ToUpper(c) == code {
			return i
		}
	}
	return -1
}

// EnableTwoFactor sets the secret, the backup codes and the enabled flag together
func (a *Account) EnableTwoFactor(secret string, backupCodes []string) {
	a.TOTPSecret = &secret
	a.BackupCodes = slices.Clone(backupCodes)
	a.Is2FAEnabled = true
}

// DisableTwoFactor clears the secret, the backup codes and the enabled flag together
func (a *Account) DisableTwoFactor() {
	a.TOTPSecret = nil
	a.BackupCodes = nil
	a.Is2FAEnabled = false
}

// Clone returns a deep copy so callers can mutate without aliasing store state
func (a *Account) Clone() *Account {
	c := *a
	if a.TOTPSecret != nil {
		s := *a.TOTPSecret
		c.TOTPSecret = &s
	}
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		c.LockedUntil = &t
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		c.LastLogin = &t
	}
	c.BackupCodes = slices.Clone(a.BackupCodes)
	return &c
}
