package mailchimp

import (
	"errors"
	"fmt"
)

// AuthenticationError is returned for client errors other than 404 and 429.
// It is never retried and aborts a run.
type AuthenticationError struct {
	StatusCode int
	Detail     string
}

func (e *AuthenticationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("mailchimp: request rejected (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("mailchimp: request rejected (status %d): %s", e.StatusCode, e.Detail)
}

// TransientServiceError is returned once throttling, 5xx or transport
// failures outlast the retry budget. StatusCode is 0 for transport failures.
type TransientServiceError struct {
	StatusCode int
	Attempts   int
	Err        error
}

func (e *TransientServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("mailchimp: service unavailable after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("mailchimp: service unavailable after %d attempts (last status %d)", e.Attempts, e.StatusCode)
}

func (e *TransientServiceError) Unwrap() error { return e.Err }

// FormatError reports a malformed credential or an API payload that does not
// have the expected shape. Field names the offending input.
type FormatError struct {
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("mailchimp: malformed %s: %v", e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NotFoundError is a 404 for a single resource. Callers treat it as a normal
// "absent" result rather than a failure of the run.
type NotFoundError struct {
	Endpoint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("mailchimp: %s not found", e.Endpoint)
}

// IsAuthentication reports whether err is or wraps an AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsTransient reports whether err is or wraps a TransientServiceError.
func IsTransient(err error) bool {
	var target *TransientServiceError
	return errors.As(err, &target)
}

// IsFormat reports whether err is or wraps a FormatError.
func IsFormat(err error) bool {
	var target *FormatError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
