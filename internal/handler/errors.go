package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const methodNotAllowed = "Method not allowed"

// writeJSON writes v without HTML escaping or a trailing newline, so upstream
// text in detail reaches the client unchanged.
func writeJSON(c echo.Context, status int, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// NewErrorHandler renders errors that never reached a handler (router 404/405,
// middleware rejections, recovered panics) in the {"error": ...} envelope.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := http.StatusText(status)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg = http.StatusText(status)
			if s, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
				msg = s
			}
		} else {
			logger.Error("unhandled error", "path", c.Request().URL.Path, "err", sanitizeError(err))
		}
		if status == http.StatusMethodNotAllowed {
			msg = methodNotAllowed
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = writeJSON(c, status, errorBody{Error: msg})
		}
		if err != nil {
			logger.Error("write error response", "err", err)
		}
	}
}

// SkipProviderRoutes is a middleware skipper for the provider endpoints, which
// never read a request body and must answer any non-GET with 405.
func SkipProviderRoutes(c echo.Context) bool {
	switch c.Request().URL.Path {
	case fredRoute, fmpRoute:
		return true
	}
	return false
}
