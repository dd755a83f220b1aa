package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"econ-proxy-go/internal/metrics"
)

// MetricsMiddleware records every inbound request except scrapes of scrapePath.
func MetricsMiddleware(m *metrics.Metrics, scrapePath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if scrapePath != "" && c.Request().URL.Path == scrapePath {
				return next(c)
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			m.ObserveRequest(c.Request().Method, c.Request().URL.Path, responseStatus(c, err), time.Since(start))
			return err
		}
	}
}
