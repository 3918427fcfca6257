package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/model"
	"github.com/iliyamo/room-reservation/internal/repository"
	"github.com/iliyamo/room-reservation/internal/service"
)

// getActor extracts the authenticated identity placed on the context by the
// JWT middleware.  Handlers behind the auth group can rely on both values
// being present; a missing or mistyped value yields an error and the
// handler responds 401.
func getActor(c echo.Context) (model.Actor, error) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return model.Actor{}, errors.New("missing user_id in context")
	}
	role, _ := c.Get("role").(string)
	return model.Actor{UserID: uid, Role: role}, nil
}

// parseID parses the named path parameter as a positive uint64.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError translates service and repository errors into HTTP
// responses.  Typed errors map to their status codes; anything unrecognised
// is a storage-level failure and becomes a generic 500 so internal details
// never leak to clients.
func writeServiceError(c echo.Context, err error) error {
	var (
		ve *service.ValidationError
		ce *service.ConflictError
		te *model.TransitionError
		ue *service.UnmatchedCallbackError
		se *service.StaleCallbackError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.As(err, &ce):
		body := echo.Map{"error": ce.Reason}
		if ce.NextAvailable != nil {
			body["next_available"] = ce.NextAvailable
		}
		return c.JSON(http.StatusConflict, body)
	case errors.As(err, &te):
		return c.JSON(http.StatusConflict, echo.Map{"error": te.Error()})
	case errors.As(err, &ue):
		// Acknowledge so the gateway stops retrying a reference we will
		// never match.
		return c.JSON(http.StatusAccepted, echo.Map{"warning": ue.Error()})
	case errors.As(err, &se):
		return c.JSON(http.StatusAccepted, echo.Map{"warning": se.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
