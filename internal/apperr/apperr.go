// Package apperr defines the closed set of application error kinds and the
// structured error value carried from the domain layer to the HTTP layer.
package apperr

import (
	"fmt"
	"strings"
)

// Kind classifies an application failure.
type Kind int

const (
	// KindUnexpected is the catch-all for failures outside the closed set.
	KindUnexpected Kind = iota
	// KindAlreadyExists indicates a uniqueness conflict on create.
	KindAlreadyExists
	// KindNotFound indicates the requested entity does not exist.
	KindNotFound
	// KindEmailNotVerified indicates the account email is pending verification.
	KindEmailNotVerified
	// KindAccountDeactivated indicates the account exists but is disabled.
	KindAccountDeactivated
	// KindUnauthenticated indicates missing or invalid credentials.
	KindUnauthenticated
	// KindForbidden indicates an authenticated but unauthorized request.
	KindForbidden
	// KindInvalidOperation indicates the operation is not valid in the current state.
	KindInvalidOperation
	// KindValidation indicates request payload validation failed.
	KindValidation
	// KindApplication indicates a generic, expected application failure.
	KindApplication
	// KindMalformedArgument indicates a missing or malformed argument.
	KindMalformedArgument
)

// Identifier is a single key/value pair describing what was being looked up.
type Identifier struct {
	Key   string
	Value string
}

// Error is the structured failure value used across the application.
// Message construction is deterministic so clients and tests can rely on it.
type Error struct {
	Kind        Kind
	Entity      string
	Identifiers []Identifier
	Subject     string
	Message     string
	Err         error
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

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// identifierClause renders "Key => value, Key2 => value2".
func identifierClause(ids []Identifier) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s => %s", id.Key, id.Value))
	}
	return strings.Join(parts, ", ")
}

func pairs(kv []string) []Identifier {
	ids := make([]Identifier, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		ids = append(ids, Identifier{Key: kv[i], Value: kv[i+1]})
	}
	return ids
}

// NotFound reports a missing entity, e.g. NotFound("Employee", "Id", "123").
func NotFound(entity string, kv ...string) *Error {
	ids := pairs(kv)
	msg := fmt.Sprintf("%s not found", entity)
	if len(ids) > 0 {
		msg = fmt.Sprintf("%s with %s not found", entity, identifierClause(ids))
	}
	return &Error{Kind: KindNotFound, Entity: entity, Identifiers: ids, Message: msg}
}

// AlreadyExists reports a uniqueness conflict, e.g.
// AlreadyExists("Employee", "Email", "a@b.com").
func AlreadyExists(entity string, kv ...string) *Error {
	ids := pairs(kv)
	msg := fmt.Sprintf("%s already exists", entity)
	if len(ids) > 0 {
		msg = fmt.Sprintf("%s with %s already exists", entity, identifierClause(ids))
	}
	return &Error{Kind: KindAlreadyExists, Entity: entity, Identifiers: ids, Message: msg}
}

// Unauthenticated reports missing or invalid credentials. The message is
// intentionally generic for token failures so callers cannot probe which
// validation step rejected them.
func Unauthenticated(message string) *Error {
	if message == "" {
		message = "authentication required"
	}
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// InvalidToken is the single opaque failure for every token rejection:
// malformed, expired, bad signature and unknown refresh values all look alike.
func InvalidToken() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "invalid or expired token"}
}

// Forbidden reports a policy denial for an authenticated subject.
func Forbidden(message string) *Error {
	if message == "" {
		message = "operation not permitted"
	}
	return &Error{Kind: KindForbidden, Message: message}
}

// AccountDeactivated reports a disabled account.
func AccountDeactivated(subject string) *Error {
	return &Error{
		Kind:    KindAccountDeactivated,
		Subject: subject,
		Message: "account is deactivated",
	}
}

// EmailNotVerified reports an account pending email verification.
func EmailNotVerified(subject string) *Error {
	return &Error{
		Kind:    KindEmailNotVerified,
		Subject: subject,
		Message: "email address is not verified",
	}
}

// InvalidOperation reports an operation that is not valid in the current state.
func InvalidOperation(message string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: message}
}

// Validation reports a request payload validation failure.
func Validation(message string) *Error {
	if message == "" {
		message = "validation failed"
	}
	return &Error{Kind: KindValidation, Message: message}
}

// Application reports a generic expected application failure.
func Application(message string) *Error {
	return &Error{Kind: KindApplication, Message: message}
}

// MalformedArgument reports a missing or malformed argument.
func MalformedArgument(name string) *Error {
	return &Error{
		Kind:    KindMalformedArgument,
		Message: fmt.Sprintf("argument %s is missing or malformed", name),
	}
}

// Wrap attaches a cause to an application error without changing its kind.
func Wrap(err *Error, cause error) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Err = cause
	return &clone
}
