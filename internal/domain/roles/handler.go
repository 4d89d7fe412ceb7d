package roles

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/me", h.Me)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/roles/:userId", h.List)
	adminGroup.POST("/roles", h.Grant)
	adminGroup.DELETE("/roles/:userId/:role", h.Revoke)
}

// Me echoes the caller identity the server resolved.
func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	roles := auth.RolesFromContext(ctx)
	if roles == nil {
		roles = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"userId": auth.UserIDFromContext(ctx),
		"email":  auth.EmailFromContext(ctx),
		"roles":  roles,
	})
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Assignment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Grant(c echo.Context) error {
	var req GrantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Grant(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Revoke(c echo.Context) error {
	if err := h.svc.Revoke(c.Request().Context(), c.Param("userId"), c.Param("role")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case validate.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "role assignment not found")
	}
	return err
}
