package presenter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
)

type Handler struct {
	svc *Service
	ws  echo.HandlerFunc
}

// NewHandler wires the HTTP routes. ws serves the websocket upgrade and may
// be nil when realtime delivery is disabled.
func NewHandler(svc *Service, ws echo.HandlerFunc) *Handler {
	return &Handler{svc: svc, ws: ws}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	if h.ws != nil {
		api.GET("/presenter/ws", h.ws)
	}

	api.GET("/presenter/sessions/:id/state", h.GetState)

	writeGroup := api.Group("", auth.RequireRole(auth.RolePresenter))
	writeGroup.PUT("/presenter/sessions/:id/state", h.PublishState)
	writeGroup.DELETE("/presenter/sessions/:id", h.EndSession)
}

func (h *Handler) PublishState(c echo.Context) error {
	id := c.Param("id")
	if !ValidSessionID(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	var req Update
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	state, err := h.svc.Publish(c.Request().Context(), id, userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) EndSession(c echo.Context) error {
	id := c.Param("id")
	if !ValidSessionID(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	state, err := h.svc.End(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) GetState(c echo.Context) error {
	id := c.Param("id")
	if !ValidSessionID(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	snap, err := h.svc.Current(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, snap)
}

func mapError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return err
}
