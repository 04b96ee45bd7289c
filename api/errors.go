package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures where no usable answer came back: the request
// could not be sent, or the response body could not be decoded.
var ErrTransport = errors.New("transport failure")

// Error is a non-success response from the remote service.
type Error struct {
	Status int
	// Detail is the service-supplied reason, or "" if it gave none.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote service returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote service returned %d: %s", e.Status, e.Detail)
}

// Detail extracts the service-supplied reason from err, or "" if err is not
// an *Error or the service gave none.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsTransport reports whether err is a transport or decoding failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
