package github

import (
	"errors"
	"fmt"
)

// APIError is returned for every failed upstream call. StatusCode is the
// upstream HTTP status, or 0 when no usable response was received
// (network failure, undecodable body, GraphQL errors).
type APIError struct {
	StatusCode int
	Message    string
	URL        string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("github %s: %d %s", e.URL, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the upstream status from err, or 0 if err is not an
// APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
