package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/service"
)

// RoomHandler serves the public room catalogue and the per-day slot grid.
// Both endpoints are read-only and safe to cache.
type RoomHandler struct {
	Rooms        *service.RoomService
	Reservations *service.ReservationService
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms *service.RoomService, reservations *service.ReservationService) *RoomHandler {
	if rooms == nil || reservations == nil {
		panic("nil service passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms, Reservations: reservations}
}

// List handles GET /v1/rooms.  Every room is returned with its effective
// status, which reads BOOKED while an active reservation covers the
// current instant.
func (h *RoomHandler) List(c echo.Context) error {
	items, err := h.Rooms.List(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetSlots handles GET /v1/rooms/:id/slots?date=YYYY-MM-DD.  It enumerates
// the room's bookable slots for the given calendar day, each flagged
// available or taken.  The date is interpreted in UTC.
func (h *RoomHandler) GetSlots(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	date, err := time.ParseInLocation("2006-01-02", c.QueryParam("date"), time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	slots, err := h.Reservations.GetAvailableSlots(c.Request().Context(), id, date)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  c.QueryParam("date"),
		"items": slots,
	})
}
