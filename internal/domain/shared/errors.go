package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details carries structured context for recoverable errors,
	// e.g. the missing prerequisite step ids for a dependency failure.
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithDetails creates a domain error carrying structured context
func NewDomainErrorWithDetails(code, message string, details map[string]any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Workflow error codes. Handlers map these to HTTP statuses; the
// recoverable ones carry enough detail for the UI to redirect or
// re-prompt rather than fail hard.
const (
	CodeDependencyNotSatisfied   = "DEPENDENCY_NOT_SATISFIED"
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeSessionExpired           = "SESSION_EXPIRED"
	CodeSessionNotFound          = "SESSION_NOT_FOUND"
	CodeStepNotFound             = "STEP_NOT_FOUND"
	CodeStepNotAvailable         = "STEP_NOT_AVAILABLE"
	CodeTemplateUnavailable      = "TEMPLATE_UNAVAILABLE"
	CodeDocumentAlreadyFinalized = "DOCUMENT_ALREADY_FINALIZED"
	CodeAlreadySigned            = "ALREADY_SIGNED"
	CodeStorageFailure           = "STORAGE_FAILURE"
)

var (
	// ErrSessionExpired is returned for writes against a session whose
	// expiry has passed. The session stays readable for audit.
	ErrSessionExpired = NewDomainError(CodeSessionExpired, "Onboarding session has expired, contact HR for a new invitation")
	// ErrSessionNotFound is returned for tokens that never existed,
	// distinct from expiry so the UI can say "broken link".
	ErrSessionNotFound = NewDomainError(CodeSessionNotFound, "Onboarding session not found")
	// ErrAlreadySigned protects finalized legal records from re-signing.
	ErrAlreadySigned = NewDomainError(CodeAlreadySigned, "Document has already been signed")
	// ErrDocumentAlreadyFinalized rejects regeneration of a signed document.
	ErrDocumentAlreadyFinalized = NewDomainError(CodeDocumentAlreadyFinalized, "Document has already been finalized")
)
