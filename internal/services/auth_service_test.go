package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/mybiotracker/internal/auth"
	"github.com/BradenHooton/mybiotracker/internal/models"
	"github.com/BradenHooton/mybiotracker/internal/repositories"
	pkgauth "github.com/BradenHooton/mybiotracker/pkg/auth"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret-32-characters-long!!"
	testPassword = "Secret123"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	clock   *fakeClock
	repo    *repositories.MemoryAccountRepository
	pending *repositories.MemoryPendingSetupStore
	deps    Deps
	auth    *AuthService
	mfa     *MFAService
	admin   *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Mid-step so TOTP codes are not on a window boundary
	clock := &fakeClock{now: time.Unix(1_700_000_025, 0).UTC()}

	hasher, err := pkgauth.NewHasher(pkgauth.HasherConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager(testSecret, auth.DefaultAccessTokenExpiry, auth.DefaultRefreshTokenExpiry, auth.WithClock(clock.Now))
	require.NoError(t, err)

	repo := repositories.NewMemoryAccountRepository().WithClock(clock.Now)
	pending := repositories.NewMemoryPendingSetupStore().WithClock(clock.Now)

	deps := Deps{
		Repo:   repo,
		Hasher: hasher,
		Tokens: tokens,
		TOTP:   auth.NewTOTPManager("MyBioTracker"),
		Policy: auth.DefaultLockoutPolicy(),
		Now:    clock.Now,
	}

	return &testEnv{
		clock:   clock,
		repo:    repo,
		pending: pending,
		deps:    deps,
		auth:    NewAuthService(deps),
		mfa:     NewMFAService(deps, pending, DefaultPendingSetupTTL),
		admin:   NewAdminService(deps),
	}
}

func (e *testEnv) register(t *testing.T, email string) *models.Account {
	t.Helper()
	account, err := e.auth.Register(context.Background(), email, testPassword)
	require.NoError(t, err)
	return account
}

func (e *testEnv) account(t *testing.T, id string) *models.Account {
	t.Helper()
	account, err := e.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

// enableTwoFactor runs setup and confirmation and returns the secret and backup codes
func (e *testEnv) enableTwoFactor(t *testing.T, accountID string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := e.mfa.BeginSetup(ctx, accountID)
	require.NoError(t, err)
	require.NoError(t, e.mfa.ConfirmSetup(ctx, accountID, e.code(t, setup.Secret)))
	return setup.Secret, setup.BackupCodes
}

func (e *testEnv) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, e.clock.Now(), totp.ValidateOpts{
		Period:    auth.TOTPPeriod,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// ============================================================================
// Registration
// ============================================================================

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.auth.Register(ctx, "  Alice@Example.com ", testPassword)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", account.Email)
	assert.True(t, account.IsActive)
	assert.False(t, account.IsAdmin)
	assert.False(t, account.Is2FAEnabled)
	assert.True(t, strings.HasPrefix(account.PasswordHash, "$argon2id$"))
	assert.NotContains(t, account.PasswordHash, testPassword)
}

func TestAuthService_Register_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice@example.com")

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "duplicate", email: "alice@example.com", password: testPassword, want: models.ErrDuplicateAccount},
		{name: "duplicate differs in case", email: "ALICE@example.com", password: testPassword, want: models.ErrDuplicateAccount},
		{name: "short password", email: "new@example.com", password: "short", want: models.ErrWeakPassword},
		{name: "missing at sign", email: "not-an-email", password: testPassword, want: models.ErrBadRequest},
		{name: "empty email", email: "  ", password: testPassword, want: models.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_Register_RepositoryError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Repo = &MockAccountRepository{
		GetByEmailFunc: func(context.Context, string) (*models.Account, error) {
			return nil, errors.New("connection reset")
		},
	}
	service := NewAuthService(env.deps)

	_, err := service.Register(context.Background(), "alice@example.com", testPassword)
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Login
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")

	result, err := env.auth.Login(ctx, "Alice@Example.com", testPassword, "", "203.0.113.7")
	require.NoError(t, err)

	assert.Equal(t, "bearer", result.Tokens.TokenType)
	assert.Equal(t, alice.ID, result.Account.ID)

	claims, err := env.deps.Tokens.Verify(result.Tokens.AccessToken, models.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, alice.ID, claims.AccountID)

	_, err = env.deps.Tokens.Verify(result.Tokens.RefreshToken, models.TokenTypeRefresh)
	require.NoError(t, err)

	stored := env.account(t, alice.ID)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(env.clock.Now()))
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com")

	_, err := env.auth.Login(context.Background(), "nobody@example.com", testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Login_WrongPasswordCountsFailure(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")

	_, err := env.auth.Login(context.Background(), "alice@example.com", "wrong-password", "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Equal(t, 1, env.account(t, alice.ID).FailedLoginAttempts)
}

func TestAuthService_Login_LocksAfterThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob@example.com")

	for i := 0; i < auth.DefaultLockoutThreshold; i++ {
		_, err := env.auth.Login(ctx, "bob@example.com", "wrong-password", "", "")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
	}
	lockedAt := env.clock.Now()

	stored := env.account(t, bob.ID)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.Equal(lockedAt.Add(15*time.Minute)))

	// The correct password does not get past a live lock
	env.clock.Advance(time.Minute)
	_, err := env.auth.Login(ctx, "bob@example.com", testPassword, "", "")
	require.ErrorIs(t, err, models.ErrAccountLocked)

	var lockErr *models.AccountLockedError
	require.True(t, errors.As(err, &lockErr))
	assert.GreaterOrEqual(t, lockErr.RemainingMinutes(), 1)
	assert.LessOrEqual(t, lockErr.RemainingMinutes(), 15)
	assert.Equal(t, 14, lockErr.RemainingMinutes())

	// One second before expiry the lock still holds
	env.clock.Advance(14*time.Minute - time.Second)
	_, err = env.auth.Login(ctx, "bob@example.com", testPassword, "", "")
	require.ErrorIs(t, err, models.ErrAccountLocked)

	env.clock.Advance(time.Second)
	_, err = env.auth.Login(ctx, "bob@example.com", testPassword, "", "")
	require.NoError(t, err)

	stored = env.account(t, bob.ID)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestAuthService_Login_LockedAttemptsDoNotExtendLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob@example.com")

	for i := 0; i < auth.DefaultLockoutThreshold; i++ {
		_, _ = env.auth.Login(ctx, "bob@example.com", "wrong-password", "", "")
	}
	until := *env.account(t, bob.ID).LockedUntil

	env.clock.Advance(5 * time.Minute)
	_, err := env.auth.Login(ctx, "bob@example.com", "wrong-password", "", "")
	require.ErrorIs(t, err, models.ErrAccountLocked)

	stored := env.account(t, bob.ID)
	assert.True(t, stored.LockedUntil.Equal(until))
	assert.Equal(t, auth.DefaultLockoutThreshold, stored.FailedLoginAttempts)
}

func TestAuthService_Login_SuccessResetsCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")

	for i := 0; i < auth.DefaultLockoutThreshold-1; i++ {
		_, _ = env.auth.Login(ctx, "alice@example.com", "wrong-password", "", "")
	}
	require.Equal(t, auth.DefaultLockoutThreshold-1, env.account(t, alice.ID).FailedLoginAttempts)

	_, err := env.auth.Login(ctx, "alice@example.com", testPassword, "", "")
	require.NoError(t, err)
	assert.Zero(t, env.account(t, alice.ID).FailedLoginAttempts)

	// The counter starts over, so four more failures still do not lock
	for i := 0; i < auth.DefaultLockoutThreshold-1; i++ {
		_, _ = env.auth.Login(ctx, "alice@example.com", "wrong-password", "", "")
	}
	assert.Nil(t, env.account(t, alice.ID).LockedUntil)
}

func TestAuthService_Login_ExpiredLockRestartsCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob@example.com")

	for i := 0; i < auth.DefaultLockoutThreshold; i++ {
		_, _ = env.auth.Login(ctx, "bob@example.com", "wrong-password", "", "")
	}
	env.clock.Advance(16 * time.Minute)

	_, err := env.auth.Login(ctx, "bob@example.com", "wrong-password", "", "")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	stored := env.account(t, bob.ID)
	assert.Equal(t, 1, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

func TestAuthService_Login_ConcurrentFailuresLockOnce(t *testing.T) {
	env := newTestEnv(t)
	bob := env.register(t, "bob@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.auth.Login(context.Background(), "bob@example.com", "wrong-password", "", "")
		}()
	}
	wg.Wait()

	stored := env.account(t, bob.ID)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.Equal(env.clock.Now().Add(15*time.Minute)))
	assert.GreaterOrEqual(t, stored.FailedLoginAttempts, auth.DefaultLockoutThreshold)
	assert.LessOrEqual(t, stored.FailedLoginAttempts, 20)
}

func TestAuthService_Login_Disabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")

	_, err := env.repo.Update(ctx, alice.ID, func(a *models.Account) error {
		a.IsActive = false
		return nil
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "alice@example.com", testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrAccountDisabled)
}

func TestAuthService_Login_TwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carol := env.register(t, "carol@example.com")
	secret, codes := env.enableTwoFactor(t, carol.ID)

	t.Run("code required", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "carol@example.com", testPassword, "", "")
		assert.ErrorIs(t, err, models.ErrTwoFactorRequired)
		assert.Zero(t, env.account(t, carol.ID).FailedLoginAttempts)
	})

	t.Run("wrong code counts as failure", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "carol@example.com", testPassword, "000000", "")
		assert.ErrorIs(t, err, models.ErrInvalidTwoFactor)
		assert.Equal(t, 1, env.account(t, carol.ID).FailedLoginAttempts)
		assert.Len(t, env.account(t, carol.ID).BackupCodes, auth.BackupCodeCount)
	})

	t.Run("totp code", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "carol@example.com", testPassword, env.code(t, secret), "")
		require.NoError(t, err)
		assert.Zero(t, env.account(t, carol.ID).FailedLoginAttempts)
	})

	t.Run("backup code works once", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "carol@example.com", testPassword, strings.ToLower(codes[0]), "")
		require.NoError(t, err)

		stored := env.account(t, carol.ID)
		assert.Len(t, stored.BackupCodes, auth.BackupCodeCount-1)
		assert.NotContains(t, stored.BackupCodes, codes[0])

		_, err = env.auth.Login(ctx, "carol@example.com", testPassword, codes[0], "")
		assert.ErrorIs(t, err, models.ErrInvalidTwoFactor)
	})

	t.Run("wrong password is reported before the second factor", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "carol@example.com", "wrong-password", env.code(t, secret), "")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestAuthService_Login_UpgradesLegacyHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	account, err := env.repo.Create(ctx, &models.Account{
		Email:        "legacy@example.com",
		PasswordHash: string(legacy),
		IsActive:     true,
	})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "legacy@example.com", testPassword, "", "")
	require.NoError(t, err)

	stored := env.account(t, account.ID)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	_, err = env.auth.Login(ctx, "legacy@example.com", testPassword, "", "")
	assert.NoError(t, err)
}

func TestAuthService_Login_EqualizedDelay(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Delay = auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: 40})
	service := NewAuthService(env.deps)
	env.register(t, "alice@example.com")

	tests := []struct {
		name  string
		email string
	}{
		{name: "unknown email", email: "nobody@example.com"},
		{name: "wrong password", email: "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := service.Login(context.Background(), tt.email, "wrong-password", "", "")
			assert.ErrorIs(t, err, models.ErrInvalidCredentials)
			assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
		})
	}
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.Repo = &MockAccountRepository{
		GetByEmailFunc: func(context.Context, string) (*models.Account, error) {
			return nil, errors.New("connection reset")
		},
	}
	service := NewAuthService(env.deps)

	_, err := service.Login(context.Background(), "alice@example.com", testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Tokens
// ============================================================================

func TestAuthService_AccessTokenLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")

	result, err := env.auth.Login(ctx, "alice@example.com", testPassword, "", "")
	require.NoError(t, err)

	me, err := env.auth.Authenticate(ctx, result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, me.ID)

	// Refresh tokens are not access tokens
	_, err = env.auth.Authenticate(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	env.clock.Advance(31 * time.Minute)
	_, err = env.auth.Authenticate(ctx, result.Tokens.AccessToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	refreshed, err := env.auth.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)

	me, err = env.auth.Authenticate(ctx, refreshed.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, me.ID)
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")

	result, err := env.auth.Login(ctx, "alice@example.com", testPassword, "", "")
	require.NoError(t, err)

	t.Run("access token", func(t *testing.T) {
		_, err := env.auth.Refresh(ctx, result.Tokens.AccessToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := env.auth.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("disabled account", func(t *testing.T) {
		_, err := env.repo.Update(ctx, alice.ID, func(a *models.Account) error {
			a.IsActive = false
			return nil
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = env.repo.Update(ctx, alice.ID, func(a *models.Account) error {
				a.IsActive = true
				return nil
			})
		})

		_, err = env.auth.Refresh(ctx, result.Tokens.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		env.clock.Advance(7*24*time.Hour + time.Second)
		_, err := env.auth.Refresh(ctx, result.Tokens.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("deleted account", func(t *testing.T) {
		fresh, err := env.deps.Tokens.IssueRefresh(alice.Email, alice.ID)
		require.NoError(t, err)
		require.NoError(t, env.repo.Delete(ctx, alice.ID))

		_, err = env.auth.Refresh(ctx, fresh)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})
}

func TestAuthService_Refresh_SkipsLockAndSecondFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carol := env.register(t, "carol@example.com")

	refresh, err := env.deps.Tokens.IssueRefresh(carol.Email, carol.ID)
	require.NoError(t, err)

	env.enableTwoFactor(t, carol.ID)
	for i := 0; i < auth.DefaultLockoutThreshold; i++ {
		_, _ = env.auth.Login(ctx, "carol@example.com", "wrong-password", "", "")
	}
	require.NotNil(t, env.account(t, carol.ID).LockedUntil)

	_, err = env.auth.Refresh(ctx, refresh)
	assert.NoError(t, err)
}

func TestAuthService_Authenticate_LockedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.register(t, "bob@example.com")

	access, err := env.deps.Tokens.IssueAccess(bob.Email, bob.ID)
	require.NoError(t, err)

	for i := 0; i < auth.DefaultLockoutThreshold; i++ {
		_, _ = env.auth.Login(ctx, "bob@example.com", "wrong-password", "", "")
	}

	_, err = env.auth.Authenticate(ctx, access)
	var lockErr *models.AccountLockedError
	require.True(t, errors.As(err, &lockErr))
	assert.Equal(t, 15, lockErr.RemainingMinutes())
}

// ============================================================================
// Password change and admin bootstrap
// ============================================================================

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice@example.com")

	tests := []struct {
		name    string
		old     string
		new     string
		wantErr error
	}{
		{name: "wrong current password", old: "wrong-password", new: "NewSecret456", wantErr: models.ErrInvalidCredentials},
		{name: "weak new password", old: testPassword, new: "short", wantErr: models.ErrWeakPassword},
		{name: "same password", old: testPassword, new: testPassword, wantErr: models.ErrSamePassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.auth.ChangePassword(ctx, alice.ID, tt.old, tt.new)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	require.NoError(t, env.auth.ChangePassword(ctx, alice.ID, testPassword, "NewSecret456"))

	_, err := env.auth.Login(ctx, "alice@example.com", testPassword, "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "alice@example.com", "NewSecret456", "", "")
	assert.NoError(t, err)
}

func TestAuthService_ChangePassword_ConcurrentChange(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")

	repo := &MockAccountRepository{
		GetByIDFunc: env.repo.GetByID,
		UpdateFunc: func(ctx context.Context, id string, fn func(*models.Account) error) (*models.Account, error) {
			// Another request changed the hash between read and update
			return env.repo.Update(ctx, id, func(a *models.Account) error {
				a.PasswordHash = "$argon2id$changed-elsewhere"
				return fn(a)
			})
		},
	}
	env.deps.Repo = repo
	service := NewAuthService(env.deps)

	err := service.ChangePassword(context.Background(), alice.ID, testPassword, "NewSecret456")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, alice.PasswordHash, env.account(t, alice.ID).PasswordHash)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.auth.EnsureAdmin(ctx, "admin@example.com", testPassword))
	admin, err := env.repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	// Idempotent
	require.NoError(t, env.auth.EnsureAdmin(ctx, "admin@example.com", testPassword))

	alice := env.register(t, "alice@example.com")
	require.NoError(t, env.auth.EnsureAdmin(ctx, "alice@example.com", "ignored-password"))
	assert.True(t, env.account(t, alice.ID).IsAdmin)
	assert.Equal(t, alice.PasswordHash, env.account(t, alice.ID).PasswordHash)
}
