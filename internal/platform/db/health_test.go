package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func okCheck(name string) Check {
	return Check{Name: name, Ping: func(context.Context) error { return nil }}
}

func failCheck(name string) Check {
	return Check{Name: name, Ping: func(context.Context) error { return errors.New("connection refused") }}
}

func TestRunChecks_AllHealthy(t *testing.T) {
	results, healthy := RunChecks(context.Background(), []Check{okCheck("postgres"), okCheck("redis")})
	if !healthy {
		t.Fatal("expected healthy")
	}
	if results["postgres"] != "ok" || results["redis"] != "ok" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestRunChecks_OneFailing(t *testing.T) {
	results, healthy := RunChecks(context.Background(), []Check{okCheck("postgres"), failCheck("redis")})
	if healthy {
		t.Fatal("expected unhealthy")
	}
	if results["redis"] != "connection refused" {
		t.Errorf("expected error message for redis, got %q", results["redis"])
	}
}

func TestHealthHandler_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   int
	}{
		{"no checks", nil, http.StatusOK},
		{"healthy", []Check{okCheck("postgres")}, http.StatusOK},
		{"unhealthy", []Check{failCheck("postgres")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			if err := HealthHandler("test", tt.checks...)(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["version"] != "test" {
				t.Errorf("expected version test, got %v", body["version"])
			}
		})
	}
}
