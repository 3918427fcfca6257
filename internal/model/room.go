package model

import "time"

// RoomStatus is the stored operational state of a room.  BOOKED is special:
// it exists in the transition table because the documented machine includes
// it, but the service never persists it.  A room reports BOOKED as a derived
// projection when its stored status is AVAILABLE and an active reservation
// overlaps the current instant; storing it separately would race with the
// interval model.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "AVAILABLE"
	RoomMaintenance RoomStatus = "MAINTENANCE"
	RoomBooked      RoomStatus = "BOOKED"
	RoomOutOfOrder  RoomStatus = "OUT_OF_ORDER"
)

// Room is the physical unit being reserved.  Capacity and rate are owned by
// the catalog and only read here.  OpensAt/ClosesAt are wall-clock "HH:MM"
// strings describing the daily operating window; a ClosesAt at or before
// OpensAt means the window runs past midnight into the next day.
//
// Fields:
//
//	ID              – primary key identifier.
//	Name            – display name, catalog owned.
//	Status          – stored operational state (never BOOKED, see above).
//	OpensAt         – daily opening time, "HH:MM".
//	ClosesAt        – daily closing time, "HH:MM".
//	Capacity        – seats, catalog owned.
//	HourlyRateCents – price per hour in cents, catalog owned.
//	CreatedAt       – creation timestamp.
//	UpdatedAt       – last update timestamp.
type Room struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Status          RoomStatus `json:"status"`
	OpensAt         string     `json:"opens_at"`
	ClosesAt        string     `json:"closes_at"`
	Capacity        uint32     `json:"capacity"`
	HourlyRateCents uint32     `json:"hourly_rate_cents"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Bookable reports whether new reservations may be created on the room.
func (r *Room) Bookable() bool { return r.Status == RoomAvailable }

// roomTransitions is the static table of legal room status moves.
var roomTransitions = map[RoomStatus][]RoomStatus{
	RoomAvailable:   {RoomMaintenance, RoomBooked, RoomOutOfOrder},
	RoomMaintenance: {RoomAvailable, RoomOutOfOrder},
	RoomBooked:      {RoomAvailable},
	RoomOutOfOrder:  {RoomMaintenance},
}

// CanRoomTransition reports whether from -> to is an edge of the room state
// machine.
func CanRoomTransition(from, to RoomStatus) bool {
	for _, s := range roomTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateRoomTransition returns a TransitionError when from -> to is not a
// legal room status move.
func ValidateRoomTransition(from, to RoomStatus) error {
	if !CanRoomTransition(from, to) {
		return &TransitionError{Entity: "room", From: string(from), To: string(to)}
	}
	return nil
}
