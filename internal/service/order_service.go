package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// OrderService is the order/payment correlator.  It creates the single live
// order per reservation and reconciles asynchronous gateway callbacks
// against it.  Callbacks may arrive duplicated or out of order, so every
// applied callback records its delivery version on the order and anything
// not strictly newer is refused without mutation.
type OrderService struct {
	store        OrderStore
	reservations ReservationStore
	log          zerolog.Logger
}

// NewOrderService wires the correlator.
func NewOrderService(store OrderStore, reservations ReservationStore, log zerolog.Logger) *OrderService {
	return &OrderService{store: store, reservations: reservations, log: log}
}

// CreateOrder opens a PENDING order for the reservation.  The reservation
// must be in a payable state (PENDING or CONFIRMED) and must not already
// carry a live order; the store closes the duplicate race with an atomic
// check-then-insert.
func (s *OrderService) CreateOrder(ctx context.Context, reservationID uint64, amountCents uint32) (*model.Order, error) {
	r, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
		return nil, &ConflictError{Reason: "reservation is not payable (status " + string(r.Status) + ")"}
	}
	o := &model.Order{
		ReservationID: reservationID,
		UserID:        r.UserID,
		AmountCents:   amountCents,
		Status:        model.OrderPending,
	}
	if err := s.store.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			return nil, &ConflictError{Reason: "reservation already has a live order"}
		}
		return nil, err
	}
	return o, nil
}

// AttachPaymentRef records the gateway-assigned reference on the order.  A
// reference can be attached once and must be unique across orders.
func (s *OrderService) AttachPaymentRef(ctx context.Context, orderID uint64, ref string) error {
	if ref == "" {
		return &ValidationError{Field: "payment_ref", Reason: "must not be empty"}
	}
	if err := s.store.AttachPaymentRef(ctx, orderID, ref); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateRef):
			return &ConflictError{Reason: "payment reference already attached to another order"}
		case errors.Is(err, repository.ErrStaleVersion):
			return &ConflictError{Reason: "order already has a payment reference"}
		}
		return err
	}
	return nil
}

// ReconcileCallback applies one gateway delivery to the order identified by
// ref.  Idempotence and ordering rules:
//
//   - unknown ref              -> UnmatchedCallbackError, nothing mutated
//   - version == last, same    -> duplicate delivery, no-op success
//   - version <= last, differs -> StaleCallbackError, nothing mutated
//   - illegal transition       -> TransitionError, nothing mutated
//
// A legal, newer delivery updates the order conditionally (current status
// and version must still match) and mirrors terminal outcomes into the
// reservation's payment status.
func (s *OrderService) ReconcileCallback(ctx context.Context, ref string, newStatus model.OrderStatus, deliveryVersion uint64) error {
	o, err := s.store.GetOrderByPaymentRef(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Str("payment_ref", ref).Str("status", string(newStatus)).Msg("unmatched payment callback")
			return &UnmatchedCallbackError{PaymentRef: ref}
		}
		return err
	}
	if deliveryVersion <= o.Version {
		if newStatus == o.Status {
			s.log.Debug().Str("payment_ref", ref).Uint64("version", deliveryVersion).Msg("duplicate payment callback ignored")
			return nil
		}
		return &StaleCallbackError{PaymentRef: ref, Delivered: deliveryVersion, LastApplied: o.Version}
	}
	if err := model.ValidateOrderTransition(o.Status, newStatus); err != nil {
		return err
	}
	ok, err := s.store.UpdateOrderStatus(ctx, o.ID, o.Status, newStatus, o.Version, deliveryVersion)
	if err != nil {
		return err
	}
	if !ok {
		return concurrentUpdate("order")
	}
	s.mirrorPaymentStatus(ctx, o.ReservationID, newStatus)
	return nil
}

// CancelForReservation moves the reservation's live order to CANCELLED when
// the order machine allows it.  Only PENDING orders have a cancel edge; a
// PROCESSING order is left for the gateway to settle and is merely logged.
// No live order is not an error.
func (s *OrderService) CancelForReservation(ctx context.Context, reservationID uint64) error {
	o, err := s.store.GetLiveOrderByReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if !model.CanOrderTransition(o.Status, model.OrderCancelled) {
		s.log.Info().Uint64("order_id", o.ID).Str("status", string(o.Status)).Msg("live order has no cancel edge, leaving to gateway")
		return nil
	}
	ok, err := s.store.UpdateOrderStatus(ctx, o.ID, o.Status, model.OrderCancelled, o.Version, o.Version+1)
	if err != nil {
		return err
	}
	if !ok {
		return concurrentUpdate("order")
	}
	return nil
}

// mirrorPaymentStatus projects a terminal order outcome onto the
// reservation's payment_status column.  The write is guarded by the payment
// transition table; a miss (another writer already moved it) is logged, not
// escalated, because the order row remains the source of truth.
func (s *OrderService) mirrorPaymentStatus(ctx context.Context, reservationID uint64, status model.OrderStatus) {
	var from, to model.PaymentStatus
	switch status {
	case model.OrderCompleted:
		from, to = model.PaymentPending, model.PaymentPaid
	case model.OrderFailed:
		from, to = model.PaymentPending, model.PaymentFailed
	case model.OrderCancelled:
		from, to = model.PaymentPending, model.PaymentCancelled
	case model.OrderRefunded:
		from, to = model.PaymentPaid, model.PaymentRefunded
	default:
		return
	}
	ok, err := s.reservations.UpdatePaymentStatus(ctx, reservationID, from, to)
	if err != nil {
		s.log.Warn().Err(err).Uint64("reservation_id", reservationID).Msg("payment status mirror failed")
		return
	}
	if !ok {
		s.log.Info().Uint64("reservation_id", reservationID).Str("to", string(to)).Msg("payment status mirror skipped, row moved concurrently")
	}
}
