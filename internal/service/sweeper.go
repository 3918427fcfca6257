package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/queue"
)

// Sweeper is the stale-reservation reconciler.  It lazily expires unpaid
// reservations whose window has elapsed; staleness is therefore bounded by
// the sweep interval, not instantaneous.  Every expiry travels the same
// transition-table-guarded conditional-update path as user edits, which
// makes the sweep safe to run repeatedly and concurrently with itself and
// with live traffic: a reservation is expired exactly once, and a second
// immediate sweep reports zero.
type Sweeper struct {
	store            ReservationStore
	pub              EventPublisher
	log              zerolog.Logger
	includeConfirmed bool
}

// NewSweeper wires the reconciler.  includeConfirmed controls whether the
// CONFIRMED -> EXPIRED edge is used in addition to PENDING -> EXPIRED.
func NewSweeper(store ReservationStore, pub EventPublisher, includeConfirmed bool, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: store, pub: pub, log: log, includeConfirmed: includeConfirmed}
}

// Sweep expires every unpaid reservation whose window ended before now and
// returns how many rows it actually expired.  Each row is handled
// independently: validation or update failure on one row is logged and the
// batch continues.  A row whose conditional update matches nothing was
// taken by a concurrent writer (another sweep instance, a cancel, an admin
// move) and is silently skipped.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	statuses := []model.ReservationStatus{model.ReservationPending}
	if s.includeConfirmed {
		statuses = append(statuses, model.ReservationConfirmed)
	}
	stale, err := s.store.ListStale(ctx, statuses, now.UTC())
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		r := &stale[i]
		if err := model.ValidateReservationTransition(r.Status, model.ReservationExpired); err != nil {
			s.log.Error().Err(err).Uint64("reservation_id", r.ID).Msg("stale reservation has no expire edge")
			continue
		}
		ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, model.ReservationExpired)
		if err != nil {
			s.log.Warn().Err(err).Uint64("reservation_id", r.ID).Msg("expire update failed")
			continue
		}
		if !ok {
			continue
		}
		if r.PaymentStatus == model.PaymentPending {
			if _, err := s.store.UpdatePaymentStatus(ctx, r.ID, model.PaymentPending, model.PaymentExpired); err != nil {
				s.log.Warn().Err(err).Uint64("reservation_id", r.ID).Msg("payment status not expired")
			}
		}
		expired++
		s.publishExpired(ctx, r, now)
	}
	return expired, nil
}

// Run invokes Sweep on a fixed interval until the context is cancelled.
// Started as a goroutine from the server entrypoint.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx, time.Now().UTC())
			if err != nil {
				s.log.Error().Err(err).Msg("sweep failed")
				continue
			}
			if n > 0 {
				s.log.Info().Int("expired", n).Msg("sweep expired stale reservations")
			}
		}
	}
}

func (s *Sweeper) publishExpired(ctx context.Context, r *model.Reservation, now time.Time) {
	if s.pub == nil {
		return
	}
	ev := queue.Event{
		EventID:       uuid.NewString(),
		Type:          queue.TypeReservationExpired,
		ReservationID: r.ID,
		UserID:        r.UserID,
		RoomID:        r.RoomID,
		StartsAt:      r.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        r.EndsAt.UTC().Format(time.RFC3339),
		Status:        string(model.ReservationExpired),
		OccurredAt:    now.UTC().Format(time.RFC3339),
	}
	if err := s.pub.PublishReservationEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Uint64("reservation_id", r.ID).Msg("expired event publish failed")
	}
}
