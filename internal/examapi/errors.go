package examapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for exam API operations.
var (
	ErrRequest   = errors.New("exam API request failed")
	ErrStatus    = errors.New("exam API returned an error status")
	ErrDecode    = errors.New("exam API response is not valid JSON")
	ErrNoSession = errors.New("no exam session started")
	ErrConfig    = errors.New("invalid exam API configuration")
	ErrTooLarge  = errors.New("exam API response too large")
)

// Fetch stages.
const (
	StageStartExam = "start-exam"
	StageQuestions = "questions"
)

// FetchError reports which request of the exchange failed.
type FetchError struct {
	Stage string // StageStartExam or StageQuestions
	URL   string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string // first bytes of the body, trimmed
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: HTTP %d", ErrStatus, e.Code)
	}
	return fmt.Sprintf("%v: HTTP %d: %s", ErrStatus, e.Code, e.Body)
}

// Unwrap lets errors.Is match ErrStatus.
func (e *StatusError) Unwrap() error { return ErrStatus }
