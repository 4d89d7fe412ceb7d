package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

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
	api.POST("/rate-limit/check", h.Check)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/rate-limit/violations", h.LogViolation)
	adminGroup.GET("/rate-limit/violations", h.ListViolations)
}

// Check answers 200 when the request fits the window and 429 with the same
// body shape when it does not.
func (h *Handler) Check(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.CheckCaller(c.Request().Context(), req.Identifier, req.Endpoint, req.Limit())
	if err != nil {
		return err
	}
	if !d.Allowed {
		c.Response().Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds))
		return c.JSON(http.StatusTooManyRequests, d)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) LogViolation(c echo.Context) error {
	var req LogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.LogViolation(c.Request().Context(), req.Identifier, req.Endpoint, req.RequestCount)
	if err != nil {
		if validate.IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) ListViolations(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListViolations(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
