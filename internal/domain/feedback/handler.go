package feedback

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/middleware"
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
	api.POST("/feedback", h.Submit)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/feedback", h.List)
	adminGroup.GET("/feedback/summary", h.Summary)
}

func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	e, err := h.svc.Submit(c.Request().Context(), req, userID, middleware.RateLimitKey(c))
	if err != nil {
		if he := ratelimit.HTTPError(c, err, "too many feedback submissions, please try again later"); he != nil {
			return he
		}
		if validate.IsValidation(err) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Summary(c echo.Context) error {
	s, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
