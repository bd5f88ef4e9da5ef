package core

import "errors"

// ErrorKind is the closed set of failure categories surfaced to callers.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindNotFound
	KindAuthorization
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	default:
		return "unexpected"
	}
}

// Error is a classified domain failure. Msg is safe to show to the user;
// Err holds the underlying cause for unexpected failures.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindAuthorization, Msg: msg}
}

// Unexpected wraps err under a stable operation message such as
// "Failed to add expense". Errors that are already classified pass
// through untouched so validation and lookup failures keep their kind.
func Unexpected(msg string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindUnexpected, Msg: msg, Err: err}
}

// KindOf classifies err. Unclassified errors are unexpected.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// MessageOf returns the user-facing message of a classified error, or
// err.Error() otherwise.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Msg
	}
	return err.Error()
}
