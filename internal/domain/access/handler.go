package access

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
	"github.com/colla00/Gemini-3-Hackathon-sub004/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/access-requests", h.Submit)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/access-requests", h.List)
	adminGroup.GET("/access-requests/:id", h.Get)
	adminGroup.POST("/access-requests/decision", h.Decide)
}

func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.Submit(c.Request().Context(), req)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      r.ID,
		"status":  r.Status,
	})
}

func (h *Handler) Decide(c echo.Context) error {
	var req DecisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	reviewer := auth.EmailFromContext(c.Request().Context())
	if reviewer == "" {
		reviewer = auth.UserIDFromContext(c.Request().Context())
	}
	r, err := h.svc.Decide(c.Request().Context(), req, reviewer)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, DecisionResponse{Success: true, Status: r.Status})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) mapError(c echo.Context, err error) error {
	if he := ratelimit.HTTPError(c, err, "too many requests, please try again later"); he != nil {
		return he
	}
	switch {
	case validate.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "access request not found")
	case errors.Is(err, ErrNotPending):
		return echo.NewHTTPError(http.StatusBadRequest, ErrNotPending.Error())
	case errors.Is(err, ErrNotify):
		return echo.NewHTTPError(http.StatusInternalServerError, ErrNotify.Error())
	}
	return err
}
