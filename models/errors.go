package models

import "fmt"

// Error codes used in internal error handling and the status API.
const (
	ErrCodeConfig       = "CONFIG_INVALID"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeLoginFailed  = "LOGIN_FAILED"
	ErrCodeTimeout      = "ELEMENT_TIMEOUT"
	ErrCodeNotFound     = "ELEMENT_NOT_FOUND"
	ErrCodeNoOptions    = "NO_OPTIONS"
	ErrCodeInteraction  = "INTERACTION_FAILED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// AI-related error codes for the inference backends.
	ErrCodeAIFailure     = "AI_FAILURE"
	ErrCodeAIAuthFailure = "AI_AUTH_FAILURE"
	ErrCodeAIRateLimited = "AI_RATE_LIMITED"
)

// QuizError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type QuizError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *QuizError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *QuizError) Unwrap() error {
	return e.Err
}

// NewQuizError creates a new QuizError.
func NewQuizError(code, message string, err error) *QuizError {
	return &QuizError{Code: code, Message: message, Err: err}
}

// ErrorCode extracts the code from a QuizError anywhere in err's chain,
// or returns ErrCodeInternal for untyped errors.
func ErrorCode(err error) string {
	for e := err; e != nil; {
		if qe, ok := e.(*QuizError); ok {
			return qe.Code
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			return ErrCodeInternal
		}
		e = u.Unwrap()
	}
	return ErrCodeInternal
}
