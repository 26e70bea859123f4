package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/database"
	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, email, password_hash, is_active, is_admin, totp_secret, is_2fa_enabled,
	backup_codes, failed_login_attempts, locked_until, last_login, created_at, updated_at`

// AccountRepository stores accounts in Postgres
type AccountRepository struct {
	db  *database.DB
	now func() time.Time
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// rowScanner covers pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var a models.Account
	var backupCodes []string

	err := scanner.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.IsAdmin, &a.TOTPSecret, &a.Is2FAEnabled,
		&backupCodes, &a.FailedLoginAttempts, &a.LockedUntil, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if len(backupCodes) > 0 {
		a.BackupCodes = backupCodes
	}
	return &a, nil
}

func scanAccountRows(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return accounts, nil
}

// validID keeps malformed ids from reaching the uuid column as a cast error
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, strings.TrimSpace(email)))
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	return scanAccountRows(rows)
}

// Create inserts a new account. A duplicate email is models.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))

	query := `
		INSERT INTO accounts (id, email, password_hash, is_active, is_admin, totp_secret, is_2fa_enabled,
			backup_codes, failed_login_attempts, locked_until, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + accountColumns

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.IsActive, account.IsAdmin,
		account.TOTPSecret, account.Is2FAEnabled, codesOrEmpty(account.BackupCodes),
		account.FailedLoginAttempts, account.LockedUntil, account.LastLogin,
		account.CreatedAt, account.UpdatedAt,
	))
}

// Update locks the row, applies fn to the current state and writes every mutable field back
// in one transaction. fn may run more than once when the transaction is retried; it must
// derive its changes from the account it is given.
func (r *AccountRepository) Update(ctx context.Context, id string, fn func(*models.Account) error) (*models.Account, error) {
	if !validID(id) {
		return nil, models.ErrNotFound
	}

	var updated *models.Account
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		current, err := scanAccountRow(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		if err := fn(current); err != nil {
			return err
		}
		current.UpdatedAt = r.now()

		query := `
			UPDATE accounts SET password_hash = $1, is_active = $2, is_admin = $3, totp_secret = $4,
				is_2fa_enabled = $5, backup_codes = $6, failed_login_attempts = $7, locked_until = $8,
				last_login = $9, updated_at = $10
			WHERE id = $11
			RETURNING ` + accountColumns

		updated, err = scanAccountRow(tx.QueryRow(ctx, query,
			current.PasswordHash, current.IsActive, current.IsAdmin, current.TOTPSecret,
			current.Is2FAEnabled, codesOrEmpty(current.BackupCodes), current.FailedLoginAttempts,
			current.LockedUntil, current.LastLogin, current.UpdatedAt, id,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return models.ErrNotFound
	}

	result, err := r.db.Pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// backup_codes is NOT NULL
func codesOrEmpty(codes []string) []string {
	if codes == nil {
		return []string{}
	}
	return codes
}
