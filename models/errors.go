package models

import (
	"context"
	"errors"
	"fmt"
)

// Error codes used in API responses, outcomes and logs.
const (
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeNoCandidate  = "NO_CANDIDATE"
	ErrCodeAcquisition  = "ACQUISITION_FAILED"
	ErrCodeNotPDF       = "NOT_PDF"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeStorage      = "STORAGE_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaperError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PaperError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PaperError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaperError) Unwrap() error {
	return e.Err
}

// NewPaperError creates a new PaperError.
func NewPaperError(code, message string, err error) *PaperError {
	return &PaperError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PaperError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first PaperError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var pe *PaperError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeInternal
}

// IsTimeout reports whether err is a timeout: either a PaperError with
// ErrCodeTimeout or a context deadline somewhere in the chain.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pe *PaperError
	return errors.As(err, &pe) && pe.Code == ErrCodeTimeout
}

// ErrorKind collapses an error into the two log categories used by the
// downloader: "timeout" or "other".
func ErrorKind(err error) string {
	if IsTimeout(err) {
		return "timeout"
	}
	return "other"
}
