package drive

import "errors"

// DriveError represents a domain error from drive operations.
//
// These are business logic errors (item not found, quota exceeded, etc.)
// as opposed to infrastructure errors (network failure, disk error).
// Infrastructure failures are wrapped with ErrUnavailable so callers can
// retry at the boundary without inspecting backend-specific errors.
type DriveError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string
}

// Error implements the error interface.
func (e *DriveError) Error() string {
	return e.Message
}

// ErrorCode represents the category of a drive error.
type ErrorCode int

const (
	// ErrNotFound indicates the entity does not exist or is not visible
	// to the caller. The two cases are deliberately indistinguishable so
	// that existence is never leaked to unauthorized users.
	ErrNotFound ErrorCode = iota

	// ErrForbidden indicates the operation requires ownership and the
	// caller is not the owner.
	ErrForbidden

	// ErrQuotaExceeded indicates the user's storage limit would be
	// exceeded by the operation.
	ErrQuotaExceeded

	// ErrInvalidOperation indicates the operation is structurally
	// invalid: a move that would introduce a cycle, a non-folder used as
	// a parent, a malformed share target, and similar.
	ErrInvalidOperation

	// ErrConflict indicates a uniqueness violation, such as registering
	// an email that is already taken.
	ErrConflict

	// ErrUnavailable indicates a persistence-layer failure (timeout,
	// connection loss). Safe to retry at the boundary.
	ErrUnavailable
)

// NotFound constructs a DriveError with ErrNotFound.
func NotFound(message string) *DriveError {
	return &DriveError{Code: ErrNotFound, Message: message}
}

// Forbidden constructs a DriveError with ErrForbidden.
func Forbidden(message string) *DriveError {
	return &DriveError{Code: ErrForbidden, Message: message}
}

// QuotaExceeded constructs a DriveError with ErrQuotaExceeded.
func QuotaExceeded(message string) *DriveError {
	return &DriveError{Code: ErrQuotaExceeded, Message: message}
}

// InvalidOperation constructs a DriveError with ErrInvalidOperation.
func InvalidOperation(message string) *DriveError {
	return &DriveError{Code: ErrInvalidOperation, Message: message}
}

// Conflict constructs a DriveError with ErrConflict.
func Conflict(message string) *DriveError {
	return &DriveError{Code: ErrConflict, Message: message}
}

// Unavailable constructs a DriveError with ErrUnavailable.
func Unavailable(message string) *DriveError {
	return &DriveError{Code: ErrUnavailable, Message: message}
}

// CodeOf extracts the ErrorCode from err. Non-domain errors map to
// ErrUnavailable so that infrastructure failures are never mistaken for
// business outcomes.
func CodeOf(err error) ErrorCode {
	var driveErr *DriveError
	if errors.As(err, &driveErr) {
		return driveErr.Code
	}
	return ErrUnavailable
}

// IsCode reports whether err is a DriveError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var driveErr *DriveError
	return errors.As(err, &driveErr) && driveErr.Code == code
}
