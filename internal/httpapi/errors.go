package httpapi

import (
	"errors"
	"net/http"

	"github.com/pders01/folio/internal/github"
)

// ValidationError is a malformed client request. It maps to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// statusFor maps err onto the HTTP status the client sees. Upstream
// statuses pass through; anything unclassified is a 500.
func statusFor(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	if code := github.StatusCode(err); code >= 400 && code <= 599 {
		return code
	}
	return http.StatusInternalServerError
}
