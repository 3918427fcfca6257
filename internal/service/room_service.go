package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/room-reservation/internal/model"
)

// RoomService is the resource state tracker.  It mutates the stored room
// status along the room transition table and reports the effective status,
// where BOOKED is a read-only projection derived from current reservation
// activity rather than a separately stored value.
type RoomService struct {
	rooms        RoomStore
	reservations ReservationStore
	log          zerolog.Logger
}

// NewRoomService wires the tracker.
func NewRoomService(rooms RoomStore, reservations ReservationStore, log zerolog.Logger) *RoomService {
	return &RoomService{rooms: rooms, reservations: reservations, log: log}
}

// RoomView is a room together with its derived effective status.
type RoomView struct {
	model.Room
	EffectiveStatus model.RoomStatus `json:"effective_status"`
}

// SetStatus applies an administrative status change.  BOOKED is refused as
// a stored target because it is derived; everything else goes through the
// transition table and a conditional update.
func (s *RoomService) SetStatus(ctx context.Context, roomID uint64, target model.RoomStatus) error {
	if target == model.RoomBooked {
		return &ValidationError{Field: "status", Reason: "BOOKED is derived from reservation activity and cannot be stored"}
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := model.ValidateRoomTransition(room.Status, target); err != nil {
		return err
	}
	ok, err := s.rooms.UpdateRoomStatus(ctx, roomID, room.Status, target)
	if err != nil {
		return err
	}
	if !ok {
		return concurrentUpdate("room")
	}
	return nil
}

// EffectiveStatus resolves the status a room presents right now: the stored
// status, except that an AVAILABLE room covered by an active reservation at
// this instant reports BOOKED.
func (s *RoomService) EffectiveStatus(ctx context.Context, room *model.Room, now time.Time) (model.RoomStatus, error) {
	if room.Status != model.RoomAvailable {
		return room.Status, nil
	}
	occupied, err := s.reservations.HasActiveAt(ctx, room.ID, now.UTC())
	if err != nil {
		return "", err
	}
	if occupied {
		return model.RoomBooked, nil
	}
	return model.RoomAvailable, nil
}

// List returns all rooms with their effective status resolved at now.
func (s *RoomService) List(ctx context.Context, now time.Time) ([]RoomView, error) {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RoomView, 0, len(rooms))
	for i := range rooms {
		eff, err := s.EffectiveStatus(ctx, &rooms[i], now)
		if err != nil {
			return nil, err
		}
		views = append(views, RoomView{Room: rooms[i], EffectiveStatus: eff})
	}
	return views, nil
}

// Get returns one room with its effective status resolved at now.
func (s *RoomService) Get(ctx context.Context, roomID uint64, now time.Time) (*RoomView, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	eff, err := s.EffectiveStatus(ctx, room, now)
	if err != nil {
		return nil, err
	}
	return &RoomView{Room: *room, EffectiveStatus: eff}, nil
}
