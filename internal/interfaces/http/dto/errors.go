package dto

import (
	"net/http"

	"github.com/lodgehr/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes come from the shared
// package; these cover failures that never reach the application layer.
const (
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed request bodies or parameters
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when the invitation token is missing
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"

	// ErrCodeDocumentsNotSigned is raised on submit while compliance
	// documents still await signatures
	ErrCodeDocumentsNotSigned = "DOCUMENTS_NOT_SIGNED"
	// ErrCodeRenderFailed is raised when PDF rendering fails
	ErrCodeRenderFailed = "RENDER_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Recoverable workflow failures map below 500 so clients can react;
// only infrastructure trouble surfaces as a 5xx.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Generic domain errors
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"INVALID_INPUT":        http.StatusBadRequest,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusConflict,

	// Session lookups
	shared.CodeSessionNotFound: http.StatusNotFound,
	shared.CodeStepNotFound:    http.StatusNotFound,
	// An expired link is gone, not missing: the UI shows a distinct
	// "contact HR for a fresh invitation" message on 410
	shared.CodeSessionExpired: http.StatusGone,

	// Step preconditions -> 422 Unprocessable Entity
	shared.CodeDependencyNotSatisfied: http.StatusUnprocessableEntity,
	shared.CodeValidationFailed:       http.StatusUnprocessableEntity,
	shared.CodeStepNotAvailable:       http.StatusConflict,

	// Document lifecycle conflicts
	shared.CodeAlreadySigned:            http.StatusConflict,
	shared.CodeDocumentAlreadyFinalized: http.StatusConflict,
	ErrCodeDocumentsNotSigned:           http.StatusConflict,

	// Infrastructure trouble
	shared.CodeTemplateUnavailable: http.StatusServiceUnavailable,
	ErrCodeRenderFailed:            http.StatusServiceUnavailable,
	shared.CodeStorageFailure:      http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
