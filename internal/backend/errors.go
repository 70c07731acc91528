package backend

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned without contacting the backend when no token is supplied.
var ErrUnauthorized = errors.New("Unauthorized: Missing token")

// Error is a non-2xx reply from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded with status %d", e.Status)
	}
	return e.Message
}
