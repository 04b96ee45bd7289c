package session

import "errors"

// Fallback login messages used when the service gives no reason.
const (
	MsgLoginFailed      = "Login failed."
	MsgLoginUnreachable = "Login failed. Please try again."
)

// errNoToken is the cause of a LoginError for a success response that
// carried no token.
var errNoToken = errors.New("login response carried no token")

// LoginError carries the human-readable reason a login was refused.
// Session state is unchanged when Login returns a LoginError.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }
