package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status   int
	Code     string
	Message  string
	Messages []string
	Err      error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// fromDomainError maps domain error codes onto HTTP statuses. Validation is the only 4xx.
func fromDomainError(err error) *HTTPError {
	appErr, ok := apperrors.As(err)
	if !ok {
		return NewHTTPError(http.StatusInternalServerError, apperrors.CodePlan, err.Error(), err)
	}
	status := http.StatusInternalServerError
	if appErr.Code == apperrors.CodeValidation {
		status = http.StatusBadRequest
	}
	return &HTTPError{
		Status:   status,
		Code:     appErr.Code,
		Message:  appErr.Message,
		Messages: appErr.Messages,
		Err:      err,
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
