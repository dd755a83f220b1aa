package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// responseStatus is the status the client will see. A returned *echo.HTTPError
// is written by the central error handler only after the middleware chain
// unwinds, so its code takes precedence over the recorded one.
func responseStatus(c echo.Context, err error) int {
	var he *echo.HTTPError
	if err != nil && errors.As(err, &he) {
		return he.Code
	}
	return c.Response().Status
}
