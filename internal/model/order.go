package model

import "time"

// OrderStatus is the lifecycle state of a payment order.  COMPLETED is not
// terminal: a completed order may still be refunded.  FAILED, CANCELLED and
// REFUNDED have no outgoing edges.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderFailed     OrderStatus = "FAILED"
	OrderCancelled  OrderStatus = "CANCELLED"
	OrderRefunded   OrderStatus = "REFUNDED"
)

// Order is the payment-tracking record tied 1:1 to a reservation.  At most
// one live (non-terminal) order may exist per reservation at any time.
//
// Fields:
//
//	ID            – primary key identifier.
//	ReservationID – reservation being paid for.
//	UserID        – user who owns the reservation, copied for gateway lookups.
//	AmountCents   – total amount in cents.
//	Status        – lifecycle state.
//	PaymentRef    – reference assigned by the payment gateway; nil until
//	                assigned, unique across orders once set.
//	Version       – last applied gateway delivery version; callbacks with a
//	                lower or equal version are duplicates or stale.
//	CreatedAt     – creation timestamp.
//	UpdatedAt     – last update timestamp.
type Order struct {
	ID            uint64      `json:"id"`
	ReservationID uint64      `json:"reservation_id"`
	UserID        uint64      `json:"user_id"`
	AmountCents   uint32      `json:"amount_cents"`
	Status        OrderStatus `json:"status"`
	PaymentRef    *string     `json:"payment_ref,omitempty"`
	Version       uint64      `json:"version"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Terminal reports whether the status has no outgoing transitions.  Note
// that COMPLETED is live because of the refund edge.
func (s OrderStatus) Terminal() bool {
	return s == OrderFailed || s == OrderCancelled || s == OrderRefunded
}

// orderTransitions is the static table of legal order status moves.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderFailed, OrderCancelled},
	OrderProcessing: {OrderCompleted, OrderFailed},
	OrderCompleted:  {OrderRefunded},
	OrderFailed:     {},
	OrderCancelled:  {},
	OrderRefunded:   {},
}

// CanOrderTransition reports whether from -> to is an edge of the order
// state machine.
func CanOrderTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateOrderTransition returns a TransitionError when from -> to is not a
// legal order status move.
func ValidateOrderTransition(from, to OrderStatus) error {
	if !CanOrderTransition(from, to) {
		return &TransitionError{Entity: "order", From: string(from), To: string(to)}
	}
	return nil
}
