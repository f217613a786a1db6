package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteService matches every *RemoteServiceError.
	ErrRemoteService = errors.New("remote summarization service error")
	// ErrMalformedResponse matches every *MalformedResponseError.
	ErrMalformedResponse = errors.New("malformed summarization response")
)

// maxErrorBody bounds the response excerpt kept in RemoteServiceError.
const maxErrorBody = 200

// RemoteServiceError is returned when the inference API answers with a
// non-success status.
type RemoteServiceError struct {
	StatusCode int
	Body       string
}

func newRemoteServiceError(status int, body string) *RemoteServiceError {
	if r := []rune(body); len(r) > maxErrorBody {
		body = string(r[:maxErrorBody])
	}
	return &RemoteServiceError{StatusCode: status, Body: body}
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("summarization service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *RemoteServiceError) Unwrap() error { return ErrRemoteService }

// MalformedResponseError is returned when a successful response does not
// have the expected shape.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed summarization response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }
