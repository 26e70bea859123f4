package services

import (
	"context"
	"errors"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/models"
)

// errNoBackupCode aborts the update without writing
var errNoBackupCode = errors.New("backup code not found")

// consumeBackupCode removes exactly one matching code in a single atomic update.
// Returns false, without mutating the account, when nothing matches.
func consumeBackupCode(ctx context.Context, repo AccountRepository, accountID, code string) (bool, error) {
	code = auth.NormalizeBackupCode(code)
	if code == "" {
		return false, nil
	}

	_, err := repo.Update(ctx, accountID, func(a *models.Account) error {
		if !a.RemoveBackupCode(code) {
			return errNoBackupCode
		}
		return nil
	})
	if errors.Is(err, errNoBackupCode) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
