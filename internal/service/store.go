// Package service contains the reservation concurrency core: the
// availability engine, the lifecycle manager, the order/payment correlator,
// the room state tracker and the stale-reservation sweeper.  All components
// are stateless beyond their injected stores; correctness under concurrent
// access rests on the stores' atomicity contracts, never on in-process
// locks, because multiple instances of the service may run side by side.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
)

// ReservationReader is the read interface the availability engine depends
// on.  Implementations must only return reservations whose status still
// blocks the room's calendar (see model.ReservationStatus.BlocksWindow).
type ReservationReader interface {
	// ListOverlapping returns blocking reservations on roomID whose
	// half-open interval overlaps [start, end).  excludeID skips one
	// reservation so an edit does not conflict with itself; zero excludes
	// nothing.
	ListOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error)
}

// ReservationStore is the full persistence contract of the lifecycle
// manager and the sweeper.  The mutating methods carry the concurrency
// obligations of the core: CreateIfFree and RescheduleIfFree must run their
// overlap check and their write atomically, and the Update* methods must
// condition the write on the row still holding the expected value,
// reporting a miss instead of assuming success.
type ReservationStore interface {
	ReservationReader

	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)

	// CreateIfFree inserts r only if no blocking reservation overlaps its
	// window, in one atomic step.  It returns repository.ErrOverlap when
	// the window is taken and populates r.ID and timestamps on success.
	CreateIfFree(ctx context.Context, r *model.Reservation) error

	// RescheduleIfFree moves a reservation to a new window, atomically
	// re-checking overlap (excluding the reservation itself) and
	// conditioning the write on version.  It returns repository.ErrOverlap
	// or repository.ErrStaleVersion accordingly.
	RescheduleIfFree(ctx context.Context, id uint64, start, end time.Time, version uint64) error

	// UpdateStatus moves status from -> to only if the row still holds
	// from.  The bool result reports whether a row was updated.
	UpdateStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error)

	// UpdatePaymentStatus is UpdateStatus for the payment_status column.
	UpdatePaymentStatus(ctx context.Context, id uint64, from, to model.PaymentStatus) (bool, error)

	// ListStale returns reservations in one of the given statuses whose
	// window ended before the cutoff and whose payment status is not PAID.
	ListStale(ctx context.Context, statuses []model.ReservationStatus, before time.Time) ([]model.Reservation, error)

	// HasActiveAt reports whether a PENDING or CONFIRMED reservation on
	// roomID covers the given instant.  Used for the derived BOOKED
	// projection.
	HasActiveAt(ctx context.Context, roomID uint64, at time.Time) (bool, error)
}

// RoomStore is the persistence contract of the room state tracker.
type RoomStore interface {
	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)

	// UpdateRoomStatus moves status from -> to only if the row still holds
	// from.
	UpdateRoomStatus(ctx context.Context, id uint64, from, to model.RoomStatus) (bool, error)
}

// OrderStore is the persistence contract of the order/payment correlator.
type OrderStore interface {
	GetOrder(ctx context.Context, id uint64) (*model.Order, error)

	// GetOrderByPaymentRef looks an order up by its gateway-assigned
	// reference; repository.ErrNotFound signals an unmatched callback.
	GetOrderByPaymentRef(ctx context.Context, ref string) (*model.Order, error)

	// GetLiveOrderByReservation returns the single non-terminal order for
	// the reservation, or repository.ErrNotFound when none exists.
	GetLiveOrderByReservation(ctx context.Context, reservationID uint64) (*model.Order, error)

	// CreateOrder inserts o, failing with repository.ErrDuplicateOrder when
	// a live order already exists for the reservation.  The check and the
	// insert are atomic.
	CreateOrder(ctx context.Context, o *model.Order) error

	// AttachPaymentRef records the gateway reference on an order that does
	// not have one yet.  repository.ErrDuplicateRef when the reference is
	// taken, repository.ErrStaleVersion when the order already has one.
	AttachPaymentRef(ctx context.Context, id uint64, ref string) error

	// UpdateOrderStatus moves status from -> to and version expect ->
	// next, only if the row still holds both expected values.
	UpdateOrderStatus(ctx context.Context, id uint64, from, to model.OrderStatus, expect, next uint64) (bool, error)
}

// EventPublisher delivers reservation lifecycle events to the broker.
// Publishing is best effort: the lifecycle manager and sweeper log failures
// and carry on, they never roll back a committed state change because the
// broker was unreachable.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, ev queue.Event) error
}
