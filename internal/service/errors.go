package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/room-reservation/internal/model"
)

// ErrForbidden is returned when the acting user is neither the owner of the
// reservation nor an administrator.  Handlers translate it into an HTTP 403
// response.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports malformed or out-of-bounds input (inverted
// window, duration outside the configured bounds, start in the past).  It
// is raised before any storage round-trip.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports that an operation lost to existing or concurrent
// state: an overlapping reservation, a duplicate live order, or a
// conditional update that matched zero rows.  When the conflict is an
// overlap, NextAvailable carries the lowest following free slot on the same
// room so the client can offer an alternative.
type ConflictError struct {
	Reason        string
	NextAvailable *model.Slot
}

// Error implements the error interface.
func (e *ConflictError) Error() string { return e.Reason }

// UnmatchedCallbackError reports a gateway callback whose payment reference
// does not correspond to any order.  It is logged and acknowledged, never
// fatal to the caller.
type UnmatchedCallbackError struct {
	PaymentRef string
}

// Error implements the error interface.
func (e *UnmatchedCallbackError) Error() string {
	return fmt.Sprintf("no order matches payment reference %q", e.PaymentRef)
}

// StaleCallbackError reports a gateway callback delivered out of order: its
// delivery version is not newer than the version already applied to the
// order.  The order is left untouched.
type StaleCallbackError struct {
	PaymentRef  string
	Delivered   uint64
	LastApplied uint64
}

// Error implements the error interface.
func (e *StaleCallbackError) Error() string {
	return fmt.Sprintf("stale callback for %q: delivery version %d, last applied %d",
		e.PaymentRef, e.Delivered, e.LastApplied)
}

// concurrentUpdate builds the ConflictError used whenever a conditional
// write matched zero rows.
func concurrentUpdate(entity string) *ConflictError {
	return &ConflictError{Reason: entity + " was modified concurrently, reload and retry"}
}
