package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/service"
)

// PaymentHandler opens orders for reservations and ingests asynchronous
// gateway callbacks.  The callback endpoint is unauthenticated (the gateway
// signs nothing we verify here) and relies on the correlator's idempotence
// and ordering rules to stay safe under duplicate and out-of-order
// deliveries.
type PaymentHandler struct {
	Orders       *service.OrderService
	Reservations *service.ReservationService
	Rooms        *service.RoomService
	Log          zerolog.Logger
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(orders *service.OrderService, reservations *service.ReservationService, rooms *service.RoomService, log zerolog.Logger) *PaymentHandler {
	if orders == nil || reservations == nil || rooms == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Orders: orders, Reservations: reservations, Rooms: rooms, Log: log}
}

// CreateOrder handles POST /v1/reservations/:id/order.  The amount is the
// room's hourly rate times the reserved window, so clients cannot submit
// their own price.  An optional payment_ref in the body is attached to the
// fresh order in the same request.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	// Ownership check rides on Get: non-owners get 403 before any pricing.
	r, err := h.Reservations.Get(ctx, id, actor)
	if err != nil {
		return writeServiceError(c, err)
	}
	room, err := h.Rooms.Get(ctx, r.RoomID, r.StartsAt)
	if err != nil {
		return writeServiceError(c, err)
	}
	amount := uint32(int64(room.HourlyRateCents) * int64(r.Duration()) / int64(time.Hour))
	o, err := h.Orders.CreateOrder(ctx, id, amount)
	if err != nil {
		return writeServiceError(c, err)
	}
	if body.PaymentRef != "" {
		if err := h.Orders.AttachPaymentRef(ctx, o.ID, body.PaymentRef); err != nil {
			return writeServiceError(c, err)
		}
		o.PaymentRef = &body.PaymentRef
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": o})
}

// Callback handles POST /v1/payments/callback.  The gateway reports the
// order's new status under its own payment reference together with a
// monotonically increasing delivery version.  Duplicates return 200,
// unmatched or stale deliveries are acknowledged with 202 so the gateway
// stops retrying, and illegal transitions are refused with 409.
func (h *PaymentHandler) Callback(c echo.Context) error {
	var body struct {
		PaymentRef      string `json:"payment_ref"`
		Status          string `json:"status"`
		DeliveryVersion uint64 `json:"delivery_version"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PaymentRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref is required"})
	}
	if body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	err := h.Orders.ReconcileCallback(c.Request().Context(), body.PaymentRef, model.OrderStatus(body.Status), body.DeliveryVersion)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"applied": true})
}
