package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes mounts the read-only census endpoints. Every authenticated
// role may read; the dataset list is public.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/datasets", h.ListDatasets)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/by-risk-type/:type", h.GetPatientByRiskType)
	api.GET("/patients/:id", h.GetPatient)
}

type datasetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Size        int    `json:"size"`
}

func (h *Handler) ListDatasets(c echo.Context) error {
	names := h.registry.Names()
	out := make([]datasetInfo, 0, len(names))
	for _, n := range names {
		ds, _ := h.registry.Get(n)
		out = append(out, datasetInfo{Name: ds.Name, Description: ds.Description, Size: len(ds.Patients)})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"datasets": out, "default": DefaultDataset})
}

func (h *Handler) ListPatients(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}

	level, err := ParseRiskLevelFilter(c.QueryParam("riskLevel"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	riskType, err := ParseRiskTypeFilter(c.QueryParam("riskType"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sortBy, err := ParseSortKey(c.QueryParam("sortBy"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v.ApplyFilters(FilterState{
		SearchQuery:     c.QueryParam("search"),
		RiskLevelFilter: level,
		RiskTypeFilter:  riskType,
		SortBy:          sortBy,
	})
	return c.JSON(http.StatusOK, v.Snapshot())
}

func (h *Handler) GetPatient(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	p, ok := v.FindPatientByID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientByRiskType(c echo.Context) error {
	v, err := h.view(c)
	if err != nil {
		return err
	}
	p, ok := v.FindPatientByRiskType(RiskType(c.Param("type")))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no patient with that risk type")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) view(c echo.Context) (*View, error) {
	ds, ok := h.registry.Get(c.QueryParam("dataset"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unknown dataset")
	}
	return NewView(ds.Patients), nil
}
