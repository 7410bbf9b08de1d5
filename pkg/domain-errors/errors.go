// Package dErrors provides coded domain errors. Services attach a Code when
// translating store sentinels or rejecting input; the HTTP boundary maps the
// code to a status. Use sentinel errors (pkg/platform/sentinel) for raw
// infrastructure facts and this package for domain-level outcomes.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for boundary mapping.
type Code string

const (
	// CodeBadRequest covers malformed requests (missing fields, bad shapes).
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput covers values that fail domain validation at parse time.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound means a referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict means the operation collides with existing state.
	CodeConflict Code = "conflict"
	// CodeValidation covers caller mistakes against domain rules: volume
	// mismatches, approval-gate violations, updates to locked records.
	CodeValidation Code = "validation_failed"
	// CodeEligibilityRejected means screening or vitals disqualify a donation.
	// Distinct from CodeValidation: the records are persisted for audit even
	// though the call reports failure.
	CodeEligibilityRejected Code = "eligibility_rejected"
	// CodeNoCompatibleDonors means a recognized blood type matched no donors.
	CodeNoCompatibleDonors Code = "no_compatible_donors"
	// CodeInvariantViolation marks a broken domain invariant at construction.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized means the actor is not authenticated.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal is an unexpected failure; details are not exposed to callers.
	CodeInternal Code = "internal_error"
)

// Error is a domain error with a classification code.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message returns the outermost domain message, or empty when the error is
// not a domain error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
