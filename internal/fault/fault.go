// Package fault defines the error kinds surfaced by the roster and match
// engines. Handlers map kinds onto HTTP statuses; the engines never expose
// driver errors directly.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error carries a kind plus a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.err }

func NotFound(msg string) error  { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error  { return &Error{Kind: KindConflict, Message: msg} }
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }
func Invalid(msg string) error   { return &Error{Kind: KindInvalid, Message: msg} }

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, err: err}
}

// KindOf returns the kind of err, or KindUnknown for errors that did not come
// from an engine precondition.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message, falling back to err.Error().
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func IsNotFound(err error) bool  { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool  { return KindOf(err) == KindConflict }
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }
func IsInvalid(err error) bool   { return KindOf(err) == KindInvalid }
