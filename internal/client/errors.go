package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch is returned by Search when the API answers with no notes.
var ErrNoMatch = errors.New("no match")

// FetchError is a failed API request: either a non-2xx response or a
// transport failure (StatusCode 0, Err set).
type FetchError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return status
	}
	return status + ": " + body
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == 404
}
