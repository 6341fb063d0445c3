package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures the way callers need to distinguish them:
// bad input, missing resource, violated precondition, or datastore trouble.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInfrastructure
)

// Error carries a kind alongside the message. Precondition failures always
// identify the failing table/order in the message; no side effects have been
// applied when one is returned.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Infra(err error, msg string) error {
	return &Error{Kind: KindInfrastructure, Msg: msg, Err: err}
}

// KindOf extracts the classification from err, KindUnknown when err carries
// none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
