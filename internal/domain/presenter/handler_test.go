package presenter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/auth"
)

// newTestRouter mounts the presenter routes behind an identity holding roles.
func newTestRouter(roles ...string) (*echo.Echo, *recordingHub) {
	svc, hub, _ := newTestService()
	e := echo.New()
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithIdentity(c.Request().Context(), "host-1", "", roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	NewHandler(svc, nil).RegisterRoutes(api)
	return e, hub
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_EndSession(t *testing.T) {
	e, hub := newTestRouter(auth.RolePresenter)

	rec := serve(e, http.MethodDelete, "/api/v1/presenter/sessions/demo", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 ending an unknown session, got %d", rec.Code)
	}

	rec = serve(e, http.MethodPut, "/api/v1/presenter/sessions/demo/state", `{"currentSlide":5,"elapsedMinutes":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, http.MethodDelete, "/api/v1/presenter/sessions/demo", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var state State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.IsLive || state.CurrentSlide != 5 {
		t.Errorf("expected ended session on slide 5, got %+v", state)
	}
	if last := hub.events[len(hub.events)-1]; last.Type != EventEnded {
		t.Errorf("expected %s broadcast, got %s", EventEnded, last.Type)
	}

	rec = serve(e, http.MethodGet, "/api/v1/presenter/sessions/demo/state", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"isLive":false`) {
		t.Errorf("audience should see the ended state, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_EndSessionRequiresPresenter(t *testing.T) {
	e, _ := newTestRouter(auth.RoleUser)

	rec := serve(e, http.MethodDelete, "/api/v1/presenter/sessions/demo", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a viewer, got %d", rec.Code)
	}
}

func TestHandler_InvalidSessionID(t *testing.T) {
	e, hub := newTestRouter(auth.RolePresenter)
	long := strings.Repeat("a", 65)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"get punctuation", http.MethodGet, "/api/v1/presenter/sessions/bad!id/state", ""},
		{"get too long", http.MethodGet, "/api/v1/presenter/sessions/" + long + "/state", ""},
		{"put punctuation", http.MethodPut, "/api/v1/presenter/sessions/bad!id/state", `{"currentSlide":1}`},
		{"delete too long", http.MethodDelete, "/api/v1/presenter/sessions/" + long, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.method, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
	if len(hub.events) != 0 {
		t.Errorf("invalid ids must not broadcast, got %d events", len(hub.events))
	}
}

func TestHandler_GetStateUnknownSession(t *testing.T) {
	e, _ := newTestRouter(auth.RoleUser)

	rec := serve(e, http.MethodGet, "/api/v1/presenter/sessions/nobody/state", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_PublishRejectsNegativeSlide(t *testing.T) {
	e, _ := newTestRouter(auth.RolePresenter)

	rec := serve(e, http.MethodPut, "/api/v1/presenter/sessions/demo/state", `{"currentSlide":-2}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
