package chat

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/domain/ratelimit"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/llm"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/middleware"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/chat", h.Chat)
	api.POST("/suggestions", h.Suggest)
}

func (h *Handler) Chat(c echo.Context) error {
	if !h.svc.Available() {
		return mapError(c, ErrUnavailable)
	}
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	resp, err := h.svc.Chat(c.Request().Context(), req, middleware.RateLimitKey(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Suggest(c echo.Context) error {
	if !h.svc.Available() {
		return mapError(c, ErrUnavailable)
	}
	var req SuggestionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	resp, err := h.svc.Suggest(c.Request().Context(), req, middleware.RateLimitKey(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func mapError(c echo.Context, err error) error {
	if he := ratelimit.HTTPError(c, err, "Rate limits exceeded, please try again later."); he != nil {
		return he
	}
	switch {
	case errors.Is(err, ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrUnavailable.Error())
	case validate.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limits exceeded, please try again later.")
	case errors.Is(err, llm.ErrPaymentRequired):
		return echo.NewHTTPError(http.StatusPaymentRequired, "Payment required, please add funds.")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "AI service error").SetInternal(err)
}
