// Package goerror carries the error classification shared by use cases and
// the HTTP layer: a type, a stable code mapped to an HTTP status, a client
// message and optional detail fields.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

// Type is the high-level class of an Error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is a stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeBadRequest is a request that cannot be served in the current state,
	// such as verifying without an outstanding challenge.
	CodeBadRequest
)

type codeInfo struct {
	name   string
	status int
}

var codes = map[Code]codeInfo{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:       {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:       {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeUnauthorized:   {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:      {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeTimeout:        {"ERROR_CODE_TIMEOUT", http.StatusRequestTimeout},
	CodeBadRequest:     {"ERROR_CODE_BAD_REQUEST", http.StatusBadRequest},
}

func (c Code) info() codeInfo {
	if ci, ok := codes[c]; ok {
		return ci
	}
	return codes[CodeInternal]
}

func (c Code) String() string { return c.info().name }

// Error wraps an optional cause with what the client is allowed to see.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error returns the cause text when present, else the client message.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }
func (e *Error) StatusCode() int           { return e.code.info().status }

// pairs turns an even key/value list into a map. A dangling key is dropped.
func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewServerCause is a server error whose msg is safe to show the client.
func NewServerCause(cause error, msg string) error {
	return &Error{err: cause, msg: msg, errType: TypeServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewBusinessCause wraps cause and renders kv, e.g. "attemptsRemaining", "2",
// as error fields.
func NewBusinessCause(cause error, msg string, code Code, kv ...string) error {
	return &Error{err: cause, msg: msg, errType: TypeBusiness, code: code, fields: pairs(kv)}
}

// NewInvalidInput reports a validation failure. With a nil err the fields
// come from kv; an odd kv is treated as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := pairs(kv)
	if fields == nil {
		fields = map[string]string{}
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports an unparsable request body.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
