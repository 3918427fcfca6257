package model

import "fmt"

// TransitionError reports an attempt to move an entity's status along an
// edge that does not exist in its transition table.  The status is left
// untouched whenever this error is returned; callers translate it into an
// HTTP 409 response.
type TransitionError struct {
	Entity string // "reservation", "order", "payment" or "room"
	From   string // current status at the time of the attempt
	To     string // requested status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: illegal transition %s -> %s", e.Entity, e.From, e.To)
}
