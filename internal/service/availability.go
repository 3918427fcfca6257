package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/room-reservation/internal/model"
)

// Availability decides whether a time window on a room is free and
// enumerates bookable slots.  It is a pure predicate over the injected
// reservation reader: business-rule bounds (duration limits, start in the
// future) are the caller's job, and nothing here writes to storage.
//
// The read path answers display queries only.  The authoritative conflict
// check for a write happens inside the store's atomic create/reschedule;
// an IsWindowFree "true" can always be invalidated by a concurrent writer.
type Availability struct {
	reservations ReservationReader
}

// NewAvailability returns an engine reading existing reservations through r.
func NewAvailability(r ReservationReader) *Availability {
	return &Availability{reservations: r}
}

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// share any instant.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// IsWindowFree reports whether no blocking reservation on roomID overlaps
// [start, end).  excludeID skips one reservation so an edit does not
// conflict with itself; pass zero to exclude nothing.
func (a *Availability) IsWindowFree(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	existing, err := a.reservations.ListOverlapping(ctx, roomID, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return len(existing) == 0, nil
}

// EnumerateSlots splits the room's operating window on the given date into
// granularity-sized slots and marks each one with the window check.  For
// overnight rooms the window crosses midnight, so the trailing slots fall
// on the next calendar day.
func (a *Availability) EnumerateSlots(ctx context.Context, room *model.Room, date time.Time, granularity time.Duration) ([]model.Slot, error) {
	open, close, err := operatingWindow(room, date)
	if err != nil {
		return nil, err
	}
	var slots []model.Slot
	for s := open; !s.Add(granularity).After(close); s = s.Add(granularity) {
		e := s.Add(granularity)
		free, err := a.IsWindowFree(ctx, room.ID, s, e, 0)
		if err != nil {
			return nil, err
		}
		slots = append(slots, model.Slot{Start: s, End: e, Available: free})
	}
	return slots, nil
}

// NextFreeSlot returns the lowest slot starting at or after from that
// passes the window check, or nil when the remainder of the operating
// window is fully taken.  It considers both the window anchored on from's
// calendar date and, for overnight rooms, the previous day's window that
// may still cover from.
func (a *Availability) NextFreeSlot(ctx context.Context, room *model.Room, from time.Time, granularity time.Duration) (*model.Slot, error) {
	for _, anchor := range []time.Time{from.AddDate(0, 0, -1), from} {
		slots, err := a.EnumerateSlots(ctx, room, anchor, granularity)
		if err != nil {
			return nil, err
		}
		for i := range slots {
			if slots[i].Start.Before(from) {
				continue
			}
			if slots[i].Available {
				return &slots[i], nil
			}
		}
	}
	return nil, nil
}

// operatingWindow resolves the room's opening hours onto a calendar date.
// A closing time at or before the opening time rolls into the next day.
func operatingWindow(room *model.Room, date time.Time) (time.Time, time.Time, error) {
	oh, om, err := parseClock(room.OpensAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("room %d opens_at: %w", room.ID, err)
	}
	ch, cm, err := parseClock(room.ClosesAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("room %d closes_at: %w", room.ID, err)
	}
	d := date.UTC()
	open := time.Date(d.Year(), d.Month(), d.Day(), oh, om, 0, 0, time.UTC)
	close := time.Date(d.Year(), d.Month(), d.Day(), ch, cm, 0, 0, time.UTC)
	if !close.After(open) {
		close = close.AddDate(0, 0, 1)
	}
	return open, close, nil
}

// parseClock parses an "HH:MM" wall-clock string.
func parseClock(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", s)
	}
	return h, m, nil
}
