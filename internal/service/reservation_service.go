package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
	"github.com/iliyamo/room-reservation/internal/repository"
)

// ReservationService is the lifecycle manager for reservations.  It owns
// every status and window mutation: input validation happens before any
// storage round-trip, window mutations go through the store's atomic
// check-then-act paths, and status mutations pair a transition-table
// validation with a conditional update.
type ReservationService struct {
	store  ReservationStore
	rooms  RoomStore
	orders *OrderService
	avail  *Availability
	pub    EventPublisher
	log    zerolog.Logger

	minDuration time.Duration
	maxDuration time.Duration
	granularity time.Duration

	now func() time.Time // swapped in tests
}

// ReservationConfig bounds the windows the lifecycle manager accepts.
type ReservationConfig struct {
	MinDuration time.Duration // shortest allowed window, default 1h
	MaxDuration time.Duration // longest allowed window, default 12h
	Granularity time.Duration // slot size for enumeration/suggestions, default 1h
}

// NewReservationService wires the lifecycle manager.  orders and pub may be
// nil; order cancellation and event publishing are then skipped.
func NewReservationService(store ReservationStore, rooms RoomStore, orders *OrderService, pub EventPublisher, cfg ReservationConfig, log zerolog.Logger) *ReservationService {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = time.Hour
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 12 * time.Hour
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = time.Hour
	}
	return &ReservationService{
		store:       store,
		rooms:       rooms,
		orders:      orders,
		avail:       NewAvailability(store),
		pub:         pub,
		log:         log,
		minDuration: cfg.MinDuration,
		maxDuration: cfg.MaxDuration,
		granularity: cfg.Granularity,
		now:         time.Now,
	}
}

// Availability exposes the engine for read-only callers (slot listing).
func (s *ReservationService) Availability() *Availability { return s.avail }

// Create books [start, end) on roomID for userID.  The overlap check and
// the insert run atomically in the store; of two racing conflicting
// requests exactly one succeeds and the other receives a ConflictError
// carrying the next free slot.  The new reservation starts PENDING with
// payment PENDING.
func (s *ReservationService) Create(ctx context.Context, userID, roomID uint64, start, end time.Time) (*model.Reservation, error) {
	start, end = start.UTC(), end.UTC()
	if err := s.validateWindow(start, end); err != nil {
		return nil, err
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Bookable() {
		return nil, &ConflictError{Reason: "room is not bookable (status " + string(room.Status) + ")"}
	}
	r := &model.Reservation{
		UserID:        userID,
		RoomID:        roomID,
		StartsAt:      start,
		EndsAt:        end,
		Status:        model.ReservationPending,
		PaymentStatus: model.PaymentPending,
	}
	if err := s.store.CreateIfFree(ctx, r); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return nil, s.overlapConflict(ctx, room, start)
		}
		return nil, err
	}
	s.publish(ctx, queue.TypeReservationCreated, r)
	return r, nil
}

// EditPatch carries the mutable fields of an edit request.  Nil fields are
// left unchanged.
type EditPatch struct {
	StartsAt *time.Time
	EndsAt   *time.Time
	Status   *model.ReservationStatus
}

// Edit applies a patch on behalf of the actor.  Window changes are
// re-validated against the new window (excluding the reservation itself)
// and applied through the atomic reschedule path; status changes go through
// the transition table.  Non-admin owners may only request CANCELLED as a
// status change, which routes through Cancel so an attached order is
// cancelled with it.
func (s *ReservationService) Edit(ctx context.Context, id uint64, actor model.Actor, patch EditPatch) (*model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(r.UserID) {
		return nil, ErrForbidden
	}

	newStart, newEnd := r.StartsAt, r.EndsAt
	if patch.StartsAt != nil {
		newStart = patch.StartsAt.UTC()
	}
	if patch.EndsAt != nil {
		newEnd = patch.EndsAt.UTC()
	}
	if !newStart.Equal(r.StartsAt) || !newEnd.Equal(r.EndsAt) {
		if err := s.validateWindow(newStart, newEnd); err != nil {
			return nil, err
		}
		if err := s.store.RescheduleIfFree(ctx, id, newStart, newEnd, r.Version); err != nil {
			switch {
			case errors.Is(err, repository.ErrOverlap):
				room, rerr := s.rooms.GetRoom(ctx, r.RoomID)
				if rerr != nil {
					return nil, rerr
				}
				return nil, s.overlapConflict(ctx, room, newStart)
			case errors.Is(err, repository.ErrStaleVersion):
				return nil, concurrentUpdate("reservation")
			}
			return nil, err
		}
	}

	if patch.Status != nil && *patch.Status != r.Status {
		if *patch.Status == model.ReservationCancelled {
			if err := s.Cancel(ctx, id, actor); err != nil {
				return nil, err
			}
			return s.store.GetReservation(ctx, id)
		}
		if !actor.Admin() {
			return nil, ErrForbidden
		}
		if err := s.setStatus(ctx, id, r.Status, *patch.Status, r); err != nil {
			return nil, err
		}
	}
	return s.store.GetReservation(ctx, id)
}

// Cancel moves the reservation to CANCELLED on behalf of the actor and asks
// the correlator to cancel a live order, if any.  Cancellation is a status
// change, never a row deletion.
func (s *ReservationService) Cancel(ctx context.Context, id uint64, actor model.Actor) error {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(r.UserID) {
		return ErrForbidden
	}
	if err := model.ValidateReservationTransition(r.Status, model.ReservationCancelled); err != nil {
		return err
	}
	ok, err := s.store.UpdateStatus(ctx, id, r.Status, model.ReservationCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return concurrentUpdate("reservation")
	}
	if r.PaymentStatus == model.PaymentPending {
		if _, err := s.store.UpdatePaymentStatus(ctx, id, model.PaymentPending, model.PaymentCancelled); err != nil {
			s.log.Warn().Err(err).Uint64("reservation_id", id).Msg("payment status not updated on cancel")
		}
	}
	if s.orders != nil {
		if err := s.orders.CancelForReservation(ctx, id); err != nil {
			s.log.Warn().Err(err).Uint64("reservation_id", id).Msg("order not cancelled with reservation")
		}
	}
	return nil
}

// AdminSetStatus applies any table-legal transition without ownership
// checks.  Used by the administrative override endpoint.
func (s *ReservationService) AdminSetStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	return s.setStatus(ctx, id, r.Status, status, r)
}

// Get returns the reservation when the actor owns it or is an admin.
func (s *ReservationService) Get(ctx context.Context, id uint64, actor model.Actor) (*model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(r.UserID) {
		return nil, ErrForbidden
	}
	return r, nil
}

// ListByUser returns the actor's reservations, newest first.
func (s *ReservationService) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.store.ListByUser(ctx, userID)
}

// GetAvailableSlots enumerates the room's slots for the given date.
func (s *ReservationService) GetAvailableSlots(ctx context.Context, roomID uint64, date time.Time) ([]model.Slot, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return s.avail.EnumerateSlots(ctx, room, date, s.granularity)
}

// setStatus pairs the table validation with the conditional write and
// publishes confirmation events.
func (s *ReservationService) setStatus(ctx context.Context, id uint64, from, to model.ReservationStatus, r *model.Reservation) error {
	if err := model.ValidateReservationTransition(from, to); err != nil {
		return err
	}
	ok, err := s.store.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return concurrentUpdate("reservation")
	}
	if to == model.ReservationConfirmed {
		confirmed := *r
		confirmed.Status = to
		s.publish(ctx, queue.TypeReservationConfirmed, &confirmed)
	}
	return nil
}

// validateWindow enforces the business bounds before storage is touched:
// end after start, duration within [min, max], start in the future.
func (s *ReservationService) validateWindow(start, end time.Time) error {
	if !end.After(start) {
		return &ValidationError{Field: "window", Reason: "end must be after start"}
	}
	if d := end.Sub(start); d < s.minDuration {
		return &ValidationError{Field: "window", Reason: "duration below minimum of " + s.minDuration.String()}
	} else if d > s.maxDuration {
		return &ValidationError{Field: "window", Reason: "duration above maximum of " + s.maxDuration.String()}
	}
	if !start.After(s.now().UTC()) {
		return &ValidationError{Field: "starts_at", Reason: "must be in the future"}
	}
	return nil
}

// overlapConflict decorates an overlap with the lowest following free slot.
func (s *ReservationService) overlapConflict(ctx context.Context, room *model.Room, from time.Time) error {
	conflict := &ConflictError{Reason: "requested window overlaps an existing reservation"}
	slot, err := s.avail.NextFreeSlot(ctx, room, from, s.granularity)
	if err != nil {
		s.log.Warn().Err(err).Uint64("room_id", room.ID).Msg("next free slot lookup failed")
		return conflict
	}
	conflict.NextAvailable = slot
	return conflict
}

// publish sends a lifecycle event, logging and swallowing broker failures.
func (s *ReservationService) publish(ctx context.Context, eventType string, r *model.Reservation) {
	if s.pub == nil {
		return
	}
	ev := queue.Event{
		EventID:       uuid.NewString(),
		Type:          eventType,
		ReservationID: r.ID,
		UserID:        r.UserID,
		RoomID:        r.RoomID,
		StartsAt:      r.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        r.EndsAt.UTC().Format(time.RFC3339),
		Status:        string(r.Status),
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	if err := s.pub.PublishReservationEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("type", eventType).Uint64("reservation_id", r.ID).Msg("event publish failed")
	}
}
