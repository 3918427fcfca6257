package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// AdminHandler groups the operator-only endpoints: forcing reservation and
// room status transitions and triggering an on-demand sweep.  Role
// enforcement happens in middleware; every transition still has to pass
// the relevant state machine, admins cannot skip edges.
type AdminHandler struct {
	Reservations *service.ReservationService
	Rooms        *service.RoomService
	Sweeper      *service.Sweeper
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(reservations *service.ReservationService, rooms *service.RoomService, sweeper *service.Sweeper) *AdminHandler {
	if reservations == nil || rooms == nil || sweeper == nil {
		panic("nil service passed to NewAdminHandler")
	}
	return &AdminHandler{Reservations: reservations, Rooms: rooms, Sweeper: sweeper}
}

// SetReservationStatus handles PUT /v1/admin/reservations/:id/status.  The
// target status must be reachable from the current one in the reservation
// state machine, otherwise the response is 409.
func (h *AdminHandler) SetReservationStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	if err := h.Reservations.AdminSetStatus(c.Request().Context(), id, model.ReservationStatus(body.Status)); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": body.Status})
}

// SetRoomStatus handles PUT /v1/admin/rooms/:id/status.  BOOKED is derived
// from the reservation calendar and is rejected as a stored target.
func (h *AdminHandler) SetRoomStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	if err := h.Rooms.SetStatus(c.Request().Context(), id, model.RoomStatus(body.Status)); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": body.Status})
}

// Sweep handles POST /v1/admin/sweep.  It runs one reconciliation pass
// immediately instead of waiting for the background interval and reports
// how many reservations were expired.
func (h *AdminHandler) Sweep(c echo.Context) error {
	expired, err := h.Sweeper.Sweep(c.Request().Context(), time.Now().UTC())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": expired})
}
