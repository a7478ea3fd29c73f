package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeTransactionFailed  = "TRANSACTION_FAILED"
	ErrCodeSyncFailed         = "SYNC_FAILED"
	ErrCodeConditionEval      = "CONDITION_EVALUATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// AppError represents an application error with an HTTP status and error code
type AppError struct {
	Code    string // Error code (e.g., "TRANSACTION_FAILED")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// NewStorageUnavailableError signals that no persistent storage can be opened
// in this environment. Callers degrade to memory-only operation.
func NewStorageUnavailableError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeStorageUnavailable,
		Message: "persistent storage is not available",
		Status:  503,
		Err:     err,
	}
}

// NewTransactionFailedError wraps a failed store operation. The caller decides
// whether to retry at its next natural trigger.
func NewTransactionFailedError(op string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransactionFailed,
		Message: fmt.Sprintf("store operation failed: %s", op),
		Status:  500,
		Err:     err,
	}
}

// NewSyncFailedError wraps a rejected remote push.
func NewSyncFailedError(sessionID string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeSyncFailed,
		Message: fmt.Sprintf("remote push failed for session %s", sessionID),
		Status:  502,
		Err:     err,
	}
}

// NewConditionEvaluationError wraps a panicking achievement predicate.
// It is logged and treated as "condition not met", never propagated.
func NewConditionEvaluationError(achievementID string, cause any) *AppError {
	return &AppError{
		Code:    ErrCodeConditionEval,
		Message: fmt.Sprintf("achievement condition panicked: %s", achievementID),
		Err:     fmt.Errorf("%v", cause),
		Status:  500,
	}
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}
