package http

import (
	"fmt"
	"net/http"
)

// Codes carried in API error bodies.
const (
	CodeBadRequest    = "ERR_BAD_REQUEST"
	CodeNotFound      = "ERR_NOT_FOUND"
	CodeUnprocessable = "ERR_UNPROCESSABLE"
	CodeTimeout       = "ERR_TIMEOUT"
	CodeInternal      = "ERR_INTERNAL"
)

// AppError is an error that knows its HTTP status. Err stays server side.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(status int, code, format string, a ...interface{}) *AppError {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	return &AppError{Code: code, Message: msg, Status: status}
}

// WithParam attaches a machine readable detail such as the bars required.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithField names the request or configuration field at fault.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(format string, a ...interface{}) *AppError {
	return newAppError(http.StatusBadRequest, CodeBadRequest, format, a...)
}

func NotFoundError(format string, a ...interface{}) *AppError {
	return newAppError(http.StatusNotFound, CodeNotFound, format, a...)
}

// UnprocessableError is for well-formed requests the data cannot answer,
// e.g. a history shorter than the longest lookback.
func UnprocessableError(format string, a ...interface{}) *AppError {
	return newAppError(http.StatusUnprocessableEntity, CodeUnprocessable, format, a...)
}

func TimeoutError(format string, a ...interface{}) *AppError {
	return newAppError(http.StatusGatewayTimeout, CodeTimeout, format, a...)
}

func InternalError(format string, a ...interface{}) *AppError {
	return newAppError(http.StatusInternalServerError, CodeInternal, format, a...)
}
