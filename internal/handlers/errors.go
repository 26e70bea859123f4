package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/BradenHooton/mybiotracker/internal/models"
	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
)

// writeServiceError maps a service error kind to its status and error code.
// Unknown errors are logged and reported as 500 without detail.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var locked *models.AccountLockedError
	switch {
	case errors.As(err, &locked):
		retryAfter := int(math.Ceil(locked.RetryAfter.Seconds()))
		pkghttp.WriteLocked(w, retryAfter,
			fmt.Sprintf("Account is locked. Try again in %d minutes.", locked.RemainingMinutes()))
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, "Incorrect email or password")
	case errors.Is(err, models.ErrTwoFactorRequired):
		pkghttp.WriteTwoFactorRequired(w)
	case errors.Is(err, models.ErrInvalidTwoFactor):
		pkghttp.WriteUnauthorized(w, "Invalid two-factor code")
	case errors.Is(err, models.ErrTokenInvalid):
		pkghttp.WriteUnauthorized(w, "Could not validate credentials")
	case errors.Is(err, models.ErrAccountDisabled):
		pkghttp.WriteBadRequest(w, "Account is disabled")
	case errors.Is(err, models.ErrDuplicateAccount):
		pkghttp.WriteBadRequest(w, "Email already registered")
	case errors.Is(err, models.ErrWeakPassword):
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, pkghttp.CodeValidation, "Password does not meet requirements", err.Error())
	case errors.Is(err, models.ErrSamePassword),
		errors.Is(err, models.ErrTwoFactorAlreadyEnabled),
		errors.Is(err, models.ErrTwoFactorNotEnabled),
		errors.Is(err, models.ErrSetupNotFound),
		errors.Is(err, models.ErrCannotModifySelf):
		pkghttp.WriteBadRequest(w, capitalize(err.Error()))
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Account not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Account was modified concurrently, please retry")
	default:
		if !errors.Is(err, models.ErrInternalServer) {
			logger.Error("unhandled service error", slog.Any("error", err))
		}
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
