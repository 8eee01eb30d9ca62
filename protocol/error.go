/*
DESCRIPTION
  error.go provides the wire error taxonomy: the five categories a
  protocol Handler may report, each with its wire code.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package protocol

import "fmt"

// Code is a wire error category.
type Code int

// Wire error categories, per spec §7.
const (
	CodeUnknownCommand Code = 400
	CodeInvalidArgument Code = 401
	CodeFileNotFound    Code = 404
	CodeInternalError   Code = 500
	CodeNotLoaded       Code = 501
)

// Error is a classified protocol failure: a wire code plus a short,
// client-safe message. It never carries a stack trace or internal path
// detail beyond what the command itself referenced.
type Error struct {
	Code Code
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.Code, e.Msg)
}

// NewError constructs an Error with the given code and message.
func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Errorf constructs an Error with a formatted message.
func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// UnknownCommand builds a 400 Error for verb.
func UnknownCommand(verb string) *Error {
	return Errorf(CodeUnknownCommand, "unknown command: %s", verb)
}

// InvalidArgument builds a 401 Error.
func InvalidArgument(msg string) *Error {
	return NewError(CodeInvalidArgument, msg)
}

// FileNotFound builds a 404 Error for path.
func FileNotFound(path string) *Error {
	return Errorf(CodeFileNotFound, "File not found: %s", path)
}

// NotLoaded builds a 501 Error.
func NotLoaded() *Error {
	return NewError(CodeNotLoaded, "no source loaded")
}

// Internal builds a 500 Error with a short, client-safe message. The
// underlying cause should be logged separately, never returned to the
// client (spec §7).
func Internal(msg string) *Error {
	return NewError(CodeInternalError, msg)
}
