package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  Transitions
// between states are restricted to the edges of reservationTransitions;
// every status write must be paired with a successful
// ValidateReservationTransition call and a conditional database update.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// PaymentStatus tracks payment progress on the reservation itself.  It is a
// denormalised mirror of the order lifecycle so that sweep queries and
// customer listings do not need to join the orders table.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentExpired   PaymentStatus = "EXPIRED"
)

// Reservation records a user's claim on a room for a half-open time
// interval [StartsAt, EndsAt).  Two reservations on the same room conflict
// when their intervals overlap and neither is CANCELLED or EXPIRED.
//
// Fields:
//
//	ID            – primary key identifier.
//	UserID        – user who owns the reservation.
//	RoomID        – room being reserved.
//	StartsAt      – start of the window (inclusive), UTC.
//	EndsAt        – end of the window (exclusive), UTC; always after StartsAt.
//	Status        – lifecycle state (PENDING, CONFIRMED, COMPLETED, CANCELLED, EXPIRED).
//	PaymentStatus – payment state mirrored from the associated order.
//	Version       – incremented on every successful write; conditional
//	                updates compare against it to detect lost races.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64            `json:"id"`
	UserID        uint64            `json:"user_id"`
	RoomID        uint64            `json:"room_id"`
	StartsAt      time.Time         `json:"starts_at"`
	EndsAt        time.Time         `json:"ends_at"`
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	Version       uint64            `json:"-"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Duration returns the cached length of the reservation window.
func (r *Reservation) Duration() time.Duration { return r.EndsAt.Sub(r.StartsAt) }

// BlocksWindow reports whether this status still occupies the room's
// calendar.  CANCELLED and EXPIRED reservations release their window; every
// other status keeps conflicting with overlapping requests.
func (s ReservationStatus) BlocksWindow() bool {
	return s != ReservationCancelled && s != ReservationExpired
}

// Terminal reports whether the status has no outgoing transitions.
func (s ReservationStatus) Terminal() bool {
	return len(reservationTransitions[s]) == 0
}

// reservationTransitions is the static table of legal status moves.
// EXPIRED is reachable from both PENDING and CONFIRMED; whether the sweep
// actually uses the CONFIRMED edge is decided by configuration, the table
// itself stays permissive.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationExpired},
	ReservationConfirmed: {ReservationCompleted, ReservationCancelled, ReservationExpired},
	ReservationCompleted: {},
	ReservationCancelled: {},
	ReservationExpired:   {},
}

// CanReservationTransition reports whether from -> to is an edge of the
// reservation state machine.
func CanReservationTransition(from, to ReservationStatus) bool {
	for _, s := range reservationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateReservationTransition returns a TransitionError when from -> to is
// not a legal move.  It is a pure function of the two states; callers must
// still condition the actual write on the row holding `from` at write time.
func ValidateReservationTransition(from, to ReservationStatus) error {
	if !CanReservationTransition(from, to) {
		return &TransitionError{Entity: "reservation", From: string(from), To: string(to)}
	}
	return nil
}

// paymentTransitions mirrors the order machine onto the reservation's
// payment_status column.  PAID can only move to REFUNDED; all failure
// outcomes are terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentPaid, PaymentFailed, PaymentCancelled, PaymentExpired},
	PaymentPaid:      {PaymentRefunded},
	PaymentFailed:    {},
	PaymentCancelled: {},
	PaymentRefunded:  {},
	PaymentExpired:   {},
}

// CanPaymentTransition reports whether from -> to is an edge of the
// payment-status machine.
func CanPaymentTransition(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidatePaymentTransition returns a TransitionError when from -> to is not
// a legal payment-status move.
func ValidatePaymentTransition(from, to PaymentStatus) error {
	if !CanPaymentTransition(from, to) {
		return &TransitionError{Entity: "payment", From: string(from), To: string(to)}
	}
	return nil
}
