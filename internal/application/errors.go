package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrUnauthenticated is returned when no usable caller identity accompanies a request.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a write is blocked by dependent records.
	ErrConflict = errors.New("application: conflict")
	// ErrAccountDisabled is returned for banned users.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrInvalidCredentials is returned when a password check fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrInsufficientFunds is returned when a guest balance cannot cover a confirmation.
	ErrInsufficientFunds = errors.New("application: insufficient funds")
	// ErrInvalidTransition is returned for status changes outside the booking lifecycle.
	ErrInvalidTransition = errors.New("application: invalid status transition")
	// ErrDatesUnavailable is returned when a stay overlaps a confirmed booking.
	ErrDatesUnavailable = errors.New("application: dates unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func fieldError(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.add(field, message)
	return vErr
}

// NewFieldError returns a validation error for a single field. Transport
// layers use it for input they fail to parse before reaching a service.
func NewFieldError(field, message string) *ValidationError {
	return fieldError(field, message)
}
