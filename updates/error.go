package updates

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("UPDATE")

// ============================================================================
// Error Codes
// ============================================================================

var (
	CodeStoreFailed = ErrRegistry.Register("STORE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to store message update")
	CodeListFailed  = ErrRegistry.Register("LIST_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to list message updates")
	CodePruneFailed = ErrRegistry.Register("PRUNE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to prune message updates")
)

// ============================================================================
// Error Constructor Functions
// ============================================================================

func ErrStoreFailed(cause error) *errx.Error {
	return ErrRegistry.New(CodeStoreFailed).WithCause(cause)
}

func ErrListFailed(cause error) *errx.Error {
	return ErrRegistry.New(CodeListFailed).WithCause(cause)
}

func ErrPruneFailed(cause error) *errx.Error {
	return ErrRegistry.New(CodePruneFailed).WithCause(cause)
}
