package coordination

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies coordination failures so the HTTP and socket layers can
// map them without string matching.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeAuthorization Code = "AUTHORIZATION"
	CodeState         Code = "STATE"
	CodeConflict      Code = "CONFLICT"
	CodeCapacity      Code = "CAPACITY"
	CodeNotFound      Code = "NOT_FOUND"
	CodeTransport     Code = "TRANSPORT"
)

// Error is the typed error returned by the store, the resolver and the
// coordination service. Reason is a short machine-readable tag
// (e.g. "RoomAlreadyClaimed"), Message is human-readable.
type Error struct {
	Code    Code
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, reason, format string, args ...interface{}) *Error {
	return &Error{Code: code, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the coordination code from err, or "" if err is not a
// coordination error.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	var pf *PartialConfirmationFailure
	if errors.As(err, &pf) {
		return CodeConflict
	}
	return ""
}

func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// PartialConfirmationFailure reports that some, but not all, reservations
// could be created during confirmation. The group stays LOCKED and the
// reservations that did succeed are kept (compensating semantics).
type PartialConfirmationFailure struct {
	GroupCode string
	Failed    []string // usernames whose reservation failed
}

func (e *PartialConfirmationFailure) Error() string {
	return fmt.Sprintf("confirmation of group %s failed for: %s",
		e.GroupCode, strings.Join(e.Failed, ", "))
}
