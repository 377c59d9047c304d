package services

import "errors"

// ErrorKind classifies a scan failure for HTTP mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuthorization
)

// ScanError is a typed domain failure with a caller-facing message
type ScanError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped cause
func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewValidationError reports a missing or invalid request field
func NewValidationError(message string) *ScanError {
	return &ScanError{Kind: KindValidation, Message: message}
}

// NewNotFoundError reports an unknown credential, user, or record
func NewNotFoundError(message string) *ScanError {
	return &ScanError{Kind: KindNotFound, Message: message}
}

// NewConflictError reports a scan that contradicts the subject's current state
func NewConflictError(message string) *ScanError {
	return &ScanError{Kind: KindConflict, Message: message}
}

// NewAuthorizationError reports a caller not permitted to perform the scan
func NewAuthorizationError(message string) *ScanError {
	return &ScanError{Kind: KindAuthorization, Message: message}
}

// NewInternalError wraps an unexpected persistence failure
func NewInternalError(message string, err error) *ScanError {
	return &ScanError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the error's kind, or KindInternal for untyped errors
func KindOf(err error) ErrorKind {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for an error
func MessageOf(err error) string {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Message
	}
	return "Server error"
}
