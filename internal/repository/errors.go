// Package repository implements the storage interfaces of the service layer
// on top of MySQL.  This file defines the sentinel errors shared by the
// repositories; higher layers distinguish failure modes with errors.Is
// rather than inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.  Handlers
// translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrOverlap is returned by the atomic create/reschedule paths when the
// requested window collides with a reservation whose status still blocks
// the room's calendar.  The service layer decorates it with a next-free
// slot suggestion before it reaches the client.
var ErrOverlap = errors.New("window overlaps an existing reservation")

// ErrStaleVersion is returned when a conditional write matched zero rows
// because another writer got there first.  Callers must treat it as a
// concurrency conflict, never as success.
var ErrStaleVersion = errors.New("row changed concurrently")

// ErrDuplicateOrder is returned when a live (non-terminal) order already
// exists for the reservation an order is being created for.
var ErrDuplicateOrder = errors.New("reservation already has a live order")

// ErrDuplicateRef is returned when a payment reference is already attached
// to a different order.  References are unique across the orders table.
var ErrDuplicateRef = errors.New("payment reference already in use")
