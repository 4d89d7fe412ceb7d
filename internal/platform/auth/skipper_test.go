package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPublicSkipper(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodGet, "/health", true},
		{http.MethodPost, "/api/v1/access-requests", true},
		{http.MethodPost, "/api/v1/feedback", true},
		{http.MethodGet, "/api/v1/presenter/ws", true},
		{http.MethodGet, "/api/v1/access-requests", false},
		{http.MethodGet, "/api/v1/feedback", false},
		{http.MethodGet, "/api/v1/patients", false},
		{http.MethodPost, "/api/v1/chat", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			c := e.NewContext(req, httptest.NewRecorder())
			c.SetPath(tt.path)

			if got := PublicSkipper(c); got != tt.want {
				t.Errorf("PublicSkipper(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}
