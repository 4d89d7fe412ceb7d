package roles

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func TestHandler_GrantListRevoke(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/roles", strings.NewReader(`{"userId":"u1","role":"presenter"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.Grant(e.NewContext(req, rec)); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/roles/u1", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("userId")
	c.SetParamValues("u1")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []Assignment
	_ = json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 || items[0].Role != "presenter" {
		t.Fatalf("unexpected list %+v", items)
	}

	req = httptest.NewRequest(http.MethodDelete, "/roles/u1/presenter", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("userId", "role")
	c.SetParamValues("u1", "presenter")
	if err := h.Revoke(c); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("userId", "role")
	c.SetParamValues("u1", "presenter")
	err := h.Revoke(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_GrantInvalidRole(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/roles", strings.NewReader(`{"userId":"u1","role":"root"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.Grant(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Me(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "u1", "u1@example.com", []string{"presenter"}))
	rec := httptest.NewRecorder()
	if err := h.Me(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		UserID string   `json:"userId"`
		Email  string   `json:"email"`
		Roles  []string `json:"roles"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.UserID != "u1" || body.Email != "u1@example.com" || len(body.Roles) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestRoutes_RequireAdmin(t *testing.T) {
	h, e := newTestHandler()
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithIdentity(c.Request().Context(), "u2", "", []string{"presenter"})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	h.RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/roles/u1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}
}
