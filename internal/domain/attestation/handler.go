package attestation

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/validate"
	"github.com/colla00/Gemini-3-Hackathon-sub004/pkg/pagination"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Any authenticated user may read groups and sign.
	api.GET("/attestation-groups", h.ListGroups)
	api.GET("/attestation-groups/:id", h.GetGroup)
	api.POST("/attestation-groups/:id/attestations", h.Attest)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/attestation-groups", h.CreateGroup)
	adminGroup.GET("/attestation-groups/export", h.ExportAll)
	adminGroup.GET("/attestation-groups/:id/export", h.ExportGroup)
	adminGroup.GET("/attestation-groups/:id/attestations", h.ListByGroup)
	adminGroup.GET("/attestations/:id", h.Get)
}

func (h *Handler) CreateGroup(c echo.Context) error {
	var req CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	g, err := h.svc.CreateGroup(c.Request().Context(), req, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) ListGroups(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListGroups(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) GetGroup(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	g, err := h.svc.GetGroup(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Attest(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req AttestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	client := Client{IPAddress: c.RealIP(), UserAgent: c.Request().UserAgent()}
	a, err := h.svc.Attest(c.Request().Context(), groupID, req, client)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByGroup(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByGroup(c.Request().Context(), groupID, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) ExportGroup(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	data, err := h.svc.Export(c.Request().Context(), groupID)
	if err != nil {
		return mapError(err)
	}
	return h.sendWorkbook(c, data)
}

func (h *Handler) ExportAll(c echo.Context) error {
	data, err := h.svc.Export(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return h.sendWorkbook(c, data)
}

func (h *Handler) sendWorkbook(c echo.Context, data []byte) error {
	filename := fmt.Sprintf("attestations-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, XLSXContentType, data)
}

func mapError(err error) error {
	switch {
	case validate.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrGroupNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrGroupNotFound.Error())
	case errors.Is(err, ErrAttestationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrAttestationNotFound.Error())
	}
	return err
}
