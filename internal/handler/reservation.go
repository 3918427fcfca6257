package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// ReservationHandler exposes the booking lifecycle over HTTP.  All methods
// assume JWT authentication has already run; ownership and role checks live
// in the service layer, so the handler only parses, delegates and maps
// errors.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	if reservations == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations}
}

// Create handles POST /v1/reservations.  The body carries the room and the
// requested half-open window in RFC3339.  On an overlap the response is 409
// with the earliest free slot of the same length, when one exists within
// the search horizon.
func (h *ReservationHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		RoomID   uint64 `json:"room_id"`
		StartsAt string `json:"starts_at"`
		EndsAt   string `json:"ends_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	start, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, body.EndsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}
	r, err := h.Reservations.Create(c.Request().Context(), actor.UserID, body.RoomID, start, end)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": r})
}

// Get handles GET /v1/reservations/:id.  Owners see their own rows; admins
// see everything.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Reservations.Get(c.Request().Context(), id, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// List handles GET /v1/my-reservations.  It returns every reservation of
// the current user, newest window first, including terminal ones.
func (h *ReservationHandler) List(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), actor.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Edit handles PATCH /v1/reservations/:id.  Absent fields are left
// unchanged.  Window changes are rechecked for overlap excluding the
// reservation itself; a concurrent edit of the same row surfaces as 409.
func (h *ReservationHandler) Edit(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		StartsAt *string `json:"starts_at"`
		EndsAt   *string `json:"ends_at"`
		Status   *string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	var patch service.EditPatch
	if body.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *body.StartsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
		}
		patch.StartsAt = &t
	}
	if body.EndsAt != nil {
		t, err := time.Parse(time.RFC3339, *body.EndsAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
		}
		patch.EndsAt = &t
	}
	if body.Status != nil {
		st := model.ReservationStatus(*body.Status)
		patch.Status = &st
	}
	r, err := h.Reservations.Edit(c.Request().Context(), id, actor, patch)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": r})
}

// Cancel handles DELETE /v1/reservations/:id.  Cancellation is a status
// change, never a row deletion, so repeated deletes of an already cancelled
// reservation return 409 from the transition table.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Reservations.Cancel(c.Request().Context(), id, actor); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
