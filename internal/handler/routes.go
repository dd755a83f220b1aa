package handler

import (
	"github.com/labstack/echo/v4"

	"econ-proxy-go/internal/provider"
)

const (
	fredRoute = "/api/fred"
	fmpRoute  = "/api/fmp"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// Provider routes accept any method so the handler can answer non-GET with 405 JSON.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, health *HealthHandler, fred *provider.FRED, fmp *provider.FMP) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.Any(fredRoute, proxy.For(fred))
	e.Any(fmpRoute, proxy.For(fmp))
}
