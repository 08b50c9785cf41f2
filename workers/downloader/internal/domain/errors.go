package domain

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeInvalidURL       = "INVALID_URL"
	CodeResolutionFailed = "RESOLUTION_FAILED"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeCorruptStore     = "CORRUPT_STORE"
	CodeIO               = "IO_ERROR"
	CodeDuplicateRecord  = "DUPLICATE_RECORD"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code      string
	Message   string
	Err       error
	Retryable bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError with the same code, so the sentinels below
// can be used with errors.Is against wrapped instances.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error, retryable bool) *DomainError {
	return &DomainError{
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}

// Sentinels for errors.Is
var (
	ErrInvalidURL       = NewDomainError(CodeInvalidURL, "please enter a valid video link", nil, false)
	ErrResolutionFailed = NewDomainError(CodeResolutionFailed, "failed to resolve video", nil, false)
	ErrFetchFailed      = NewDomainError(CodeFetchFailed, "download failed", nil, true)
	ErrCorruptStore     = NewDomainError(CodeCorruptStore, "catalog file is not valid JSON", nil, false)
	ErrIO               = NewDomainError(CodeIO, "file operation failed", nil, true)
	ErrDuplicateRecord  = NewDomainError(CodeDuplicateRecord, "video already in catalog", nil, false)
)

// NewResolutionError wraps a gateway failure during metadata lookup
func NewResolutionError(err error) *DomainError {
	return NewDomainError(CodeResolutionFailed, ErrResolutionFailed.Message, err, false)
}

// NewFetchError wraps a gateway failure during the media download
func NewFetchError(err error) *DomainError {
	return NewDomainError(CodeFetchFailed, ErrFetchFailed.Message, err, true)
}

// NewCorruptStoreError wraps a catalog decode failure
func NewCorruptStoreError(err error) *DomainError {
	return NewDomainError(CodeCorruptStore, ErrCorruptStore.Message, err, false)
}

// NewIOError wraps a filesystem failure
func NewIOError(message string, err error) *DomainError {
	return NewDomainError(CodeIO, message, err, true)
}

// IsRetryable reports whether err is worth another download attempt.
// Errors outside the taxonomy are retried.
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return true
}

// Describe renders err for end users: the message and its cause, without
// the code prefix.
func Describe(err error) string {
	var de *DomainError
	if !errors.As(err, &de) {
		return err.Error()
	}
	if de.Err != nil {
		return fmt.Sprintf("%s: %v", de.Message, de.Err)
	}
	return de.Message
}
