package presence

import (
	"errors"
	"fmt"
	"net/http"
)

// ===== Error model (shared shape with auth) =====
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeInvalidDate        Code = "INVALID_DATE"
	CodeInvalidTime        Code = "INVALID_TIME"
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
	CodeInternal           Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func (e *APIError) Unwrap() error { return e.cause }

func ErrInvalid(msg string) *APIError     { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrInvalidDate(msg string) *APIError { return &APIError{Code: CodeInvalidDate, Message: msg} }
func ErrInvalidTime(msg string) *APIError { return &APIError{Code: CodeInvalidTime, Message: msg} }
func ErrNotFound(msg string) *APIError    { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrPersistence(msg string) *APIError { return &APIError{Code: CodePersistenceFailure, Message: msg} }

func ErrStorage(msg string, cause error) *APIError {
	return &APIError{Code: CodeStorageUnavailable, Message: msg, cause: cause}
}

// CodeOf extracts the Code of err, CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var api *APIError
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}

func toHTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidArgument, CodeInvalidDate, CodeInvalidTime:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
