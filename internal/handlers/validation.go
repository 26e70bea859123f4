package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkghttp "github.com/BradenHooton/mybiotracker/pkg/http"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; every endpoint takes a handful of short fields
const maxBodyBytes = 1 << 16

// Global validator instance (reused across all handlers)
var validate = validator.New()

// ValidateRequest validates a request struct using go-playground/validator.
// Only the first field error is reported.
func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Errorf("%s: %s", jsonFieldName(ve[0]), formatValidationError(ve[0]))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// jsonFieldName lower-cases the struct field the way clients see it
func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "TOTPCode":
		return "totp_code"
	case "OldPassword":
		return "old_password"
	case "NewPassword":
		return "new_password"
	case "RefreshToken":
		return "refresh_token"
	case "Email":
		return "email"
	case "Password":
		return "password"
	default:
		return fe.Field()
	}
}

// formatValidationError converts a validator FieldError to a user-friendly message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

// decodeRequest decodes and validates a JSON body into dst. On failure it writes
// the 400 response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return false
	}

	if err := ValidateRequest(dst); err != nil {
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, pkghttp.CodeValidation, "Request validation failed", err.Error())
		return false
	}
	return true
}
