package auth

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

// ============================================================================
// Error Codes
// ============================================================================

var (
	CodeServiceKeyUnavailable = ErrRegistry.Register("SERVICE_KEY_UNAVAILABLE", errx.TypeInternal, http.StatusServiceUnavailable, "Service API key is not configured")
	CodeMissingAPIKey         = ErrRegistry.Register("MISSING_API_KEY", errx.TypeAuthorization, http.StatusUnauthorized, "API key is required")
	CodeInvalidAPIKey         = ErrRegistry.Register("INVALID_API_KEY", errx.TypeAuthorization, http.StatusForbidden, "Invalid API key")
	CodeInvalidGeneralKey     = ErrRegistry.Register("INVALID_GENERAL_KEY", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid key")
)

// ============================================================================
// Error Constructor Functions
// ============================================================================

func ErrServiceKeyUnavailable() *errx.Error {
	return ErrRegistry.New(CodeServiceKeyUnavailable)
}

func ErrMissingAPIKey() *errx.Error {
	return ErrRegistry.New(CodeMissingAPIKey)
}

func ErrInvalidAPIKey() *errx.Error {
	return ErrRegistry.New(CodeInvalidAPIKey)
}

func ErrInvalidGeneralKey() *errx.Error {
	return ErrRegistry.New(CodeInvalidGeneralKey)
}
