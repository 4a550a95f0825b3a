package sessionapi

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

var ErrRegistry = errx.NewRegistry("SESSION_API")

var (
	CodeMissingPathParams = ErrRegistry.Register("MISSING_PATH_PARAMS", errx.TypeValidation, http.StatusBadRequest, "site and session path parameters are required")
	CodeInvalidPayload    = ErrRegistry.Register("INVALID_PAYLOAD", errx.TypeValidation, http.StatusBadRequest, "Invalid request payload")
	CodeInvalidRecipient  = ErrRegistry.Register("INVALID_RECIPIENT", errx.TypeValidation, http.StatusBadRequest, "recipient is required")
	CodeInvalidType       = ErrRegistry.Register("INVALID_TYPE", errx.TypeValidation, http.StatusBadRequest, "message_type must be one of Text, Image, Document, Audio, Video")
	CodeInvalidMedia      = ErrRegistry.Register("INVALID_MEDIA", errx.TypeValidation, http.StatusBadRequest, "media payload is not valid base64")
)

func ErrMissingPathParams() *errx.Error {
	return ErrRegistry.New(CodeMissingPathParams)
}

func ErrInvalidPayload() *errx.Error {
	return ErrRegistry.New(CodeInvalidPayload)
}

func ErrInvalidRecipient() *errx.Error {
	return ErrRegistry.New(CodeInvalidRecipient)
}

func ErrInvalidType() *errx.Error {
	return ErrRegistry.New(CodeInvalidType)
}

func ErrInvalidMedia() *errx.Error {
	return ErrRegistry.New(CodeInvalidMedia)
}
