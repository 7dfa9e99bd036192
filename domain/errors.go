package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeForbidden         ErrorCode = "NOT_AUTHORIZED"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal          ErrorCode = "INTERNAL"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeLocationRequired  ErrorCode = "LOCATION_REQUIRED"
	ErrCodeGeocode           ErrorCode = "GEOCODE_ERROR"
	ErrCodeAlreadyProcessed  ErrorCode = "ALREADY_PROCESSED"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports code equality so errors.Is matches any error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound     = NewError(ErrCodeNotFound, "user not found")
	ErrDonationNotFound = NewError(ErrCodeNotFound, "donation not found")
	ErrSessionNotFound  = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidLocation  = NewError(ErrCodeInvalid, "invalid coordinates")

	ErrNotAuthorized     = NewError(ErrCodeForbidden, "actor is not allowed to perform this action")
	ErrAgentNotVerified  = NewError(ErrCodeForbidden, "agent account is not verified")
	ErrLocationRequired  = NewError(ErrCodeLocationRequired, "location is not set, update your profile with a valid city and state first")
	ErrAlreadyProcessed  = NewError(ErrCodeAlreadyProcessed, "donation was already processed")
	ErrFeedbackSubmitted = NewError(ErrCodeAlreadyProcessed, "feedback was already submitted")
	ErrDonorRated        = NewError(ErrCodeAlreadyProcessed, "donor was already rated for this donation")
)

// InvalidTransition reports an event that is not allowed from the current status.
func InvalidTransition(from DonationStatus, event Event) *Error {
	return NewError(ErrCodeInvalidTransition, fmt.Sprintf("cannot %s a donation in status %q", event, from))
}

// GeocodeError wraps a geocoder failure for the given address.
func GeocodeError(address string, err error) *Error {
	return WrapError(ErrCodeGeocode, fmt.Sprintf("unable to resolve address %q", address), err)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
