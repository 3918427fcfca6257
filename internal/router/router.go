package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/handler"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/model"
)

// RegisterRoutes registers routes that require no authentication and no
// domain handlers.  Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated read side: the room
// catalogue and the per-day slot grid.  The slot grid takes the response
// cache so repeated browsing of the same day is served from Redis inside
// the configured TTL.  The payment callback also lives here because the
// gateway holds no user token; the correlator's matching rules are the
// guard on that path.
func RegisterPublic(e *echo.Echo, rooms *handler.RoomHandler, pay *handler.PaymentHandler, slotCache echo.MiddlewareFunc) {
	e.GET("/v1/rooms", rooms.List)
	e.GET("/v1/rooms/:id/slots", rooms.GetSlots, slotCache)
	e.POST("/v1/payments/callback", pay.Callback)
}

// RegisterReservations registers the authenticated booking lifecycle under
// /v1.  Both roles may book; ownership checks on individual rows live in
// the service layer.
func RegisterReservations(e *echo.Echo, res *handler.ReservationHandler, pay *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))

	g.POST("/reservations", res.Create)
	g.GET("/my-reservations", res.List)
	g.GET("/reservations/:id", res.Get)
	g.PATCH("/reservations/:id", res.Edit)
	g.DELETE("/reservations/:id", res.Cancel)
	g.POST("/reservations/:id/order", pay.CreateOrder)
}

// RegisterAdmin registers the operator endpoints under /v1/admin, limited
// to the ADMIN role.
func RegisterAdmin(e *echo.Echo, admin *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.PUT("/reservations/:id/status", admin.SetReservationStatus)
	g.PUT("/rooms/:id/status", admin.SetRoomStatus)
	g.POST("/sweep", admin.Sweep)
}
