package errors

import "errors"

// Error codes shared by the planner domains and the HTTP layer.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeForecast      = "FORECAST_ERROR"
	CodeAIUnavailable = "AI_UNAVAILABLE"
	CodeAIFailure     = "AI_FAILURE"
	CodePlan          = "PLAN_ERROR"
	CodeState         = "STATE_ERROR"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code     string
	Message  string
	Messages []string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// Validation reports user-correctable input problems. All messages are kept.
func Validation(messages ...string) error {
	msg := "validation failed"
	if len(messages) == 1 {
		msg = messages[0]
	}
	return &AppError{Code: CodeValidation, Message: msg, Messages: append([]string(nil), messages...)}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
