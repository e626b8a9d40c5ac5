// Package errors defines the coded errors surfaced by the session, the HTTP
// API and the MCP tools. The core stores never return these; they stay total
// and the layers above translate outcomes into codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of shell error.
type ErrorCode string

const (
	ErrReferenceNotFound    ErrorCode = "REFERENCE_NOT_FOUND"    // 404
	ErrStructuralViolation  ErrorCode = "STRUCTURAL_VIOLATION"   // 409
	ErrCollaboratorFailure  ErrorCode = "COLLABORATOR_FAILURE"   // 502
	ErrConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"  // 428
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"        // 400
	ErrInternal             ErrorCode = "INTERNAL"               // 500
)

// ShellError is a structured error with code, HTTP status and details.
type ShellError struct {
	Code    ErrorCode      `json:"code"`
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *ShellError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ShellError) Unwrap() error {
	return e.cause
}

// NewReferenceNotFound creates a 404 error for an unknown node, window or path.
func NewReferenceNotFound(kind, ref string) *ShellError {
	return &ShellError{
		Code:    ErrReferenceNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s not found: %s", kind, ref),
		Details: map[string]any{"kind": kind, "ref": ref},
	}
}

// NewStructuralViolation creates a 409 error for an operation that would
// break the tree, such as adding under a file.
func NewStructuralViolation(msg string) *ShellError {
	return &ShellError{
		Code:    ErrStructuralViolation,
		Status:  http.StatusConflict,
		Message: msg,
	}
}

// NewCollaboratorFailure creates a 502 error for a failing archive codec,
// persistence store or host import.
func NewCollaboratorFailure(collaborator string, err error) *ShellError {
	msg := collaborator + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", collaborator, err)
	}
	return &ShellError{
		Code:    ErrCollaboratorFailure,
		Status:  http.StatusBadGateway,
		Message: msg,
		Details: map[string]any{"collaborator": collaborator},
		cause:   err,
	}
}

// NewConfirmationRequired creates a 428 error for a permanent deletion that
// was not confirmed.
func NewConfirmationRequired(action string) *ShellError {
	return &ShellError{
		Code:    ErrConfirmationRequired,
		Status:  http.StatusPreconditionRequired,
		Message: fmt.Sprintf("%s requires confirmation", action),
		Details: map[string]any{"action": action},
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ShellError {
	return &ShellError{
		Code:    ErrInvalidRequest,
		Status:  http.StatusBadRequest,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ShellError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShellError{
		Code:    ErrInternal,
		Status:  http.StatusInternalServerError,
		Message: msg,
		cause:   err,
	}
}

// As returns the ShellError in err's chain, or wraps err as an internal error.
func As(err error) *ShellError {
	if err == nil {
		return nil
	}
	var sErr *ShellError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}

// Is checks if an error is a ShellError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ShellError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
