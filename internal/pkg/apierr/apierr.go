package apierr

import (
	"errors"
	"fmt"
)

// Codes for the failure kinds a submission or analytics call can surface.
// Crisis short-circuits and sentiment-parse fallbacks are ordinary return
// values, not errors, so they have no code here.
const (
	CodeRetrievalUnavailable = "retrieval_unavailable"
	CodeGenerationFailure    = "generation_failure"
	CodePersistenceFailure   = "persistence_failure"
	CodeInvalidArgument      = "invalid_argument"
	CodeNotFound             = "not_found"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Code extracts the apierr code from err, or "" when err carries none.
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
