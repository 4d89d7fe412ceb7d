package auth

import (
	"github.com/labstack/echo/v4"
)

// publicRoutes lists "METHOD path" pairs served without a bearer token. An
// Authorization header on these routes is still validated so the caller can be
// identified when present.
var publicRoutes = map[string]bool{
	"GET /health":                   true,
	"POST /api/v1/access-requests":  true,
	"POST /api/v1/feedback":         true,
	"POST /api/v1/rate-limit/check": true,
	"GET /api/v1/presenter/ws":      true,
	"GET /api/v1/patients/datasets": true,
}

// IsPublicRoute reports whether the method and registered route path are
// reachable anonymously.
func IsPublicRoute(method, path string) bool {
	return publicRoutes[method+" "+path]
}

// PublicSkipper adapts IsPublicRoute to an echo context.
func PublicSkipper(c echo.Context) bool {
	return IsPublicRoute(c.Request().Method, c.Path())
}
