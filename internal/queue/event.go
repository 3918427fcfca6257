// Package queue defines the message payloads exchanged over the broker and
// the background consumer that records them.
package queue

// EventsQueue is the durable queue carrying all reservation lifecycle
// events.  Consumers dispatch on the Type field.
const EventsQueue = "reservation.events"

// Event types published by the service.
const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationExpired   = "reservation.expired"
)

// Event is published whenever a reservation changes state in a way
// downstream consumers care about.  It carries enough information for
// logging, notification and analytics without querying the primary
// database.  Timestamps are RFC3339 strings in UTC.
type Event struct {
	EventID       string `json:"event_id"` // uuid, for consumer-side dedup
	Type          string `json:"type"`
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	RoomID        uint64 `json:"room_id"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
