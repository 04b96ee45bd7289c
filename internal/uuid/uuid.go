// Package uuid generates identifiers for transient UI objects such as messages.
package uuid

import "github.com/google/uuid"

// New returns a random (version 4) UUID string.
func New() string {
	return uuid.NewString()
}
