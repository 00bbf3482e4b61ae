package rpc

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeMethodNotSupported Code = "METHOD_NOT_SUPPORTED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// HTTPStatus maps an error code to the status the HTTP transport responds with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotSupported:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Issue pinpoints one invalid input field.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error is an application error raised by the procedure layer itself. Errors
// returned by stores are never converted into an Error.
type Error struct {
	Code    Code
	Message string
	Issues  []Issue
	Cause   error
}

func (e *Error) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s: %s)", e.Code, e.Message, e.Issues[0].Path, e.Issues[0].Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	rpcErr, ok := AsError(err)
	return ok && rpcErr.Code == CodeBadRequest
}
