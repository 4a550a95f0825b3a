package sessions

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("SESSION")

// ============================================================================
// Error Codes
// ============================================================================

var (
	// Initiation errors
	CodeInitiateTimeout    = ErrRegistry.Register("INITIATE_TIMEOUT", errx.TypeInternal, http.StatusInternalServerError, "Timeout: QR code not generated in time")
	CodeInitiateFailed     = ErrRegistry.Register("INITIATE_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Failed to initiate session")
	CodeDisconnectedDuring = ErrRegistry.Register("DISCONNECTED_DURING_INIT", errx.TypeExternal, http.StatusInternalServerError, "Session disconnected during initiation process")
	CodeQRGeneration       = ErrRegistry.Register("QR_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate QR image")

	// Disconnect errors
	CodeDisconnectFailed = ErrRegistry.Register("DISCONNECT_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Failed to disconnect session")

	// Dispatch errors
	CodeNotConnected       = ErrRegistry.Register("NOT_CONNECTED", errx.TypeBusiness, http.StatusBadRequest, "Session is not connected")
	CodeTextRequired       = ErrRegistry.Register("TEXT_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Text content is required for text messages")
	CodeMediaRequired      = ErrRegistry.Register("MEDIA_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Media data is required for this message type")
	CodeUnsupportedType    = ErrRegistry.Register("UNSUPPORTED_TYPE", errx.TypeValidation, http.StatusBadRequest, "Unsupported message type")
	CodeSendFailed         = ErrRegistry.Register("SEND_FAILED", errx.TypeExternal, http.StatusInternalServerError, "Failed to send message")
	CodeMissingMessageID   = ErrRegistry.Register("MISSING_MESSAGE_ID", errx.TypeExternal, http.StatusInternalServerError, "Message sent but no ID was returned")
	CodeSessionNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Session not found")
	CodeSessionNotLoggedIn = ErrRegistry.Register("NOT_LOGGED_IN", errx.TypeBusiness, http.StatusBadRequest, "Session has no authenticated device")
)

// ============================================================================
// Error Constructor Functions
// ============================================================================

func ErrInitiateTimeout() *errx.Error {
	return ErrRegistry.New(CodeInitiateTimeout)
}

func ErrInitiateFailed() *errx.Error {
	return ErrRegistry.New(CodeInitiateFailed)
}

func ErrDisconnectedDuringInit() *errx.Error {
	return ErrRegistry.New(CodeDisconnectedDuring)
}

func ErrQRGeneration() *errx.Error {
	return ErrRegistry.New(CodeQRGeneration)
}

func ErrDisconnectFailed() *errx.Error {
	return ErrRegistry.New(CodeDisconnectFailed)
}

func ErrNotConnected() *errx.Error {
	return ErrRegistry.New(CodeNotConnected)
}

func ErrTextRequired() *errx.Error {
	return ErrRegistry.New(CodeTextRequired)
}

func ErrMediaRequired() *errx.Error {
	return ErrRegistry.New(CodeMediaRequired)
}

func ErrUnsupportedType() *errx.Error {
	return ErrRegistry.New(CodeUnsupportedType)
}

func ErrSendFailed() *errx.Error {
	return ErrRegistry.New(CodeSendFailed)
}

func ErrMissingMessageID() *errx.Error {
	return ErrRegistry.New(CodeMissingMessageID)
}

func ErrSessionNotFound() *errx.Error {
	return ErrRegistry.New(CodeSessionNotFound)
}

func ErrSessionNotLoggedIn() *errx.Error {
	return ErrRegistry.New(CodeSessionNotLoggedIn)
}
