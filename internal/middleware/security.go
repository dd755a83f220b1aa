package middleware

import (
	"github.com/labstack/echo/v4"
)

// securityHeaders are set on every response. The proxy only ever serves JSON,
// so the content policy denies everything.
var securityHeaders = [][2]string{
	{echo.HeaderXContentTypeOptions, "nosniff"},
	{echo.HeaderXFrameOptions, "DENY"},
	{echo.HeaderReferrerPolicy, "no-referrer"},
	{echo.HeaderContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'"},
}

// SecurityHeaders sets securityHeaders before the handler runs, so they are
// present even on responses the handler commits itself.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Response().Header()
			for _, kv := range securityHeaders {
				header.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
