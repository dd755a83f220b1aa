package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"econ-proxy-go/internal/metrics"
	"econ-proxy-go/internal/provider"
	"econ-proxy-go/internal/service"
)

// apiKeyPattern matches api_key / apikey query values in URLs embedded in error messages.
var apiKeyPattern = regexp.MustCompile(`(?i)(api_?key=)[^&\s"]+`)

const (
	cacheControl = "s-maxage=3600, max-age=300"
	allowOrigin  = "*"
)

// errorBody is the JSON envelope for every failure. Field order is part of the wire format.
type errorBody struct {
	Error string `json:"error"`
}

// upstreamErrorBody always carries detail, even when the provider sent an empty body.
type upstreamErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// ProxyHandler serves the provider endpoints.
type ProxyHandler struct {
	service *service.ProxyService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler. The metrics parameter may be nil.
func NewProxyHandler(svc *service.ProxyService, m *metrics.Metrics, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		metrics: m,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// For returns the echo handler that proxies GET requests to p.
func (h *ProxyHandler) For(p provider.Provider) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if req.Method != http.MethodGet {
			c.Response().Header().Set(echo.HeaderAllow, http.MethodGet)
			return writeJSON(c, http.StatusMethodNotAllowed, errorBody{Error: methodNotAllowed})
		}

		body, err := h.service.Fetch(req.Context(), p, req.URL.Query())
		if err != nil {
			return h.mapError(c, p, err)
		}

		header := c.Response().Header()
		header.Set(echo.HeaderCacheControl, cacheControl)
		header.Set(echo.HeaderAccessControlAllowOrigin, allowOrigin)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
	}
}

func (h *ProxyHandler) mapError(c echo.Context, p provider.Provider, err error) error {
	path := c.Request().URL.Path

	var paramErr *provider.ParamError
	if errors.As(err, &paramErr) {
		h.logger.Debug("rejected request", "provider", p.Name(), "param", paramErr.Param, "path", path)
		h.metrics.RejectParam(p.Name(), paramErr.Param)
		return writeJSON(c, http.StatusBadRequest, errorBody{Error: paramErr.Message})
	}

	var keyErr *service.MissingKeyError
	if errors.As(err, &keyErr) {
		h.logger.Error("provider key missing", "provider", p.Name(), "key", keyErr.Key)
		return writeJSON(c, http.StatusInternalServerError, errorBody{Error: keyErr.Error()})
	}

	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		h.logger.Warn("upstream error",
			"provider", p.Name(),
			"status", upErr.StatusCode,
			"path", path,
		)
		return writeJSON(c, upErr.StatusCode, upstreamErrorBody{Error: upErr.Error(), Detail: upErr.Detail})
	}

	msg := sanitizeError(err)
	h.logger.Error("proxy error", "provider", p.Name(), "err", msg, "path", path)
	return writeJSON(c, http.StatusInternalServerError, errorBody{Error: msg})
}

// sanitizeError redacts API keys from error messages that may contain upstream URLs.
func sanitizeError(err error) string {
	return apiKeyPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]")
}
