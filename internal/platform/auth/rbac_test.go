package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		required []string
		want     bool
	}{
		{"exact match", []string{"presenter"}, []string{"presenter"}, true},
		{"admin satisfies any", []string{"admin"}, []string{"presenter"}, true},
		{"one of many", []string{"user"}, []string{"presenter", "user"}, true},
		{"missing", []string{"user"}, []string{"presenter"}, false},
		{"no roles", nil, []string{"user"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithIdentity(context.Background(), "u1", "", tt.roles)
			if got := HasRole(ctx, tt.required...); got != tt.want {
				t.Errorf("HasRole(%v, %v) = %v, want %v", tt.roles, tt.required, got, tt.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		roles  []string
		want   int
	}{
		{"anonymous", "", nil, http.StatusUnauthorized},
		{"forbidden", "u1", []string{"user"}, http.StatusForbidden},
		{"allowed", "u1", []string{"presenter"}, http.StatusOK},
		{"admin", "u1", []string{"admin"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req = req.WithContext(WithIdentity(req.Context(), tt.userID, "", tt.roles))
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := RequireRole(RolePresenter)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			err := h(c)
			if tt.want == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertHTTPCode(t, err, tt.want)
		})
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{"admin", "presenter", "user"} {
		if !ValidRole(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if ValidRole("superuser") {
		t.Error("expected superuser to be invalid")
	}
}

func TestIsPublicRoute(t *testing.T) {
	if !IsPublicRoute(http.MethodPost, "/api/v1/access-requests") {
		t.Error("expected access request submission to be public")
	}
	if IsPublicRoute(http.MethodGet, "/api/v1/access-requests") {
		t.Error("listing access requests must require auth")
	}
}
