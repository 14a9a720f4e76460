package httpx

import (
	"errors"
	"net/http"
)

const (
	StatusOK                  = http.StatusOK                   // Successful request
	StatusCreated             = http.StatusCreated              // Resource created
	StatusNoContent           = http.StatusNoContent            // Successful with no body
	StatusBadRequest          = http.StatusBadRequest           // Validation or malformed input
	StatusNotFound            = http.StatusNotFound             // Resource not found
	StatusConflict            = http.StatusConflict             // Uniqueness or version conflict
	StatusUnsupportedMedia    = http.StatusUnsupportedMediaType // Body in an unexpected encoding
	StatusUnprocessableEntity = http.StatusUnprocessableEntity  // Semantically invalid input
	StatusInternalError       = http.StatusInternalServerError  // Unexpected server error
	StatusBadGateway          = http.StatusBadGateway           // Upstream returned an error
	StatusServiceUnavailable  = http.StatusServiceUnavailable   // Dependency failure or maintenance
)

// ErrorStatus maps errors matching Err (via errors.Is) onto Code.
type ErrorStatus struct {
	Err  error
	Code int
}

// StatusFor returns the code of the first entry in table matching err, and
// StatusInternalError when none does.
func StatusFor(err error, table []ErrorStatus) int {
	for _, e := range table {
		if errors.Is(err, e.Err) {
			return e.Code
		}
	}
	return StatusInternalError
}
