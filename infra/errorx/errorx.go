// Package errorx is the coded error type shared by every package of the engine.
//
// Callers branch with errors.Is against the sentinels below:
//
//	if errors.Is(err, errorx.ErrSingularMatrix) { ... }
//
// ErrInvalidArgument matches every code of the invalid-argument family
// (INVALID_VALUE, EMPTY_VALUE, DIMENSION_MISMATCH).
package errorx

import (
	"errors"
	"fmt"

	"spatialregr/infra/errorx/errCode"
)

var (
	ErrInvalidArgument = &Error{Code: errCode.INVALID_VALUE}
	ErrEmptyValue      = &Error{Code: errCode.EMPTY_VALUE}
	ErrDimension       = &Error{Code: errCode.DIMENSION_MISMATCH}
	ErrSingularMatrix  = &Error{Code: errCode.SINGULAR_MATRIX}
)

type Error struct {
	Code   errCode.Code
	Msg    string
	Detail string
	cause  error
}

// New 构造错误; detail is optional free text appended to the message.
func New(code errCode.Code, msg string, detail ...string) *Error {
	e := &Error{Code: code, Msg: msg}
	if len(detail) > 0 {
		e.Detail = detail[0]
	}
	return e
}

// Newf is New with a formatted message.
func Newf(code errCode.Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap keeps the code of err when it already is an *Error, so a singular
// matrix deep inside a GWR local fit still reports as singular.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := errCode.INVALID_VALUE
	var e *Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return &Error{Code: code, Msg: msg, cause: err}
}

func (e *Error) Error() string {
	s := e.Code.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches sentinels (no message) by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.cause != nil {
		return false
	}
	if t.Code == errCode.INVALID_VALUE {
		return e.Code.IsInvalidArgument()
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, OK for nil and
// INVALID_VALUE for foreign errors.
func CodeOf(err error) errCode.Code {
	if err == nil {
		return errCode.OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return errCode.INVALID_VALUE
}
