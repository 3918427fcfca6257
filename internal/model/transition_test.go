package model

import (
	"errors"
	"testing"
)

func TestCanReservationTransition(t *testing.T) {
	cases := []struct {
		from, to ReservationStatus
		want     bool
	}{
		// forward flow
		{ReservationPending, ReservationConfirmed, true},
		{ReservationConfirmed, ReservationCompleted, true},
		// cancellation from both live states
		{ReservationPending, ReservationCancelled, true},
		{ReservationConfirmed, ReservationCancelled, true},
		// expiry edges used by the sweeper
		{ReservationPending, ReservationExpired, true},
		{ReservationConfirmed, ReservationExpired, true},
		// terminal states have no outgoing edges
		{ReservationCompleted, ReservationPending, false},
		{ReservationCancelled, ReservationPending, false},
		{ReservationCancelled, ReservationConfirmed, false},
		{ReservationExpired, ReservationPending, false},
		{ReservationExpired, ReservationConfirmed, false},
		// skipping and reversing
		{ReservationPending, ReservationCompleted, false},
		{ReservationConfirmed, ReservationPending, false},
		// self-loops are not transitions
		{ReservationPending, ReservationPending, false},
	}
	for _, tc := range cases {
		if got := CanReservationTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanReservationTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanPaymentTransition(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentCancelled, true},
		{PaymentPending, PaymentExpired, true},
		// refunds only from paid
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPending, PaymentRefunded, false},
		// paid never reverts
		{PaymentPaid, PaymentPending, false},
		{PaymentPaid, PaymentFailed, false},
		// terminal
		{PaymentFailed, PaymentPaid, false},
		{PaymentCancelled, PaymentPaid, false},
		{PaymentRefunded, PaymentPaid, false},
		{PaymentExpired, PaymentPaid, false},
	}
	for _, tc := range cases {
		if got := CanPaymentTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanPaymentTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanOrderTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderFailed, true},
		{OrderPending, OrderCancelled, true},
		{OrderProcessing, OrderCompleted, true},
		{OrderProcessing, OrderFailed, true},
		{OrderCompleted, OrderRefunded, true},
		// a processing order cannot be cancelled locally
		{OrderProcessing, OrderCancelled, false},
		// no skipping
		{OrderPending, OrderCompleted, false},
		{OrderPending, OrderRefunded, false},
		// terminal
		{OrderFailed, OrderPending, false},
		{OrderCancelled, OrderProcessing, false},
		{OrderRefunded, OrderCompleted, false},
	}
	for _, tc := range cases {
		if got := CanOrderTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanOrderTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanRoomTransition(t *testing.T) {
	cases := []struct {
		from, to RoomStatus
		want     bool
	}{
		{RoomAvailable, RoomMaintenance, true},
		{RoomAvailable, RoomBooked, true},
		{RoomAvailable, RoomOutOfOrder, true},
		{RoomMaintenance, RoomAvailable, true},
		{RoomMaintenance, RoomOutOfOrder, true},
		{RoomBooked, RoomAvailable, true},
		{RoomOutOfOrder, RoomMaintenance, true},
		// out of order must pass through maintenance
		{RoomOutOfOrder, RoomAvailable, false},
		{RoomOutOfOrder, RoomBooked, false},
		{RoomBooked, RoomMaintenance, false},
		{RoomMaintenance, RoomBooked, false},
	}
	for _, tc := range cases {
		if got := CanRoomTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanRoomTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidateTransitionError(t *testing.T) {
	err := ValidateReservationTransition(ReservationExpired, ReservationConfirmed)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if te.Entity != "reservation" || te.From != string(ReservationExpired) || te.To != string(ReservationConfirmed) {
		t.Errorf("unexpected error fields: %+v", te)
	}
	if ValidateReservationTransition(ReservationPending, ReservationConfirmed) != nil {
		t.Errorf("legal transition must validate")
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range []ReservationStatus{ReservationPending, ReservationConfirmed} {
		if !s.BlocksWindow() {
			t.Errorf("%s must block the window", s)
		}
	}
	// COMPLETED is terminal but its past window is history, it still
	// occupies the calendar record; only released statuses free the slot.
	for _, s := range []ReservationStatus{ReservationCancelled, ReservationExpired} {
		if s.BlocksWindow() {
			t.Errorf("%s must not block the window", s)
		}
	}
	for _, s := range []ReservationStatus{ReservationCompleted, ReservationCancelled, ReservationExpired} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	if OrderCompleted.Terminal() {
		t.Errorf("COMPLETED order can still be refunded and must not be terminal")
	}
}
