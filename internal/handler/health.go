package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"econ-proxy-go/internal/provider"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	providers []provider.Provider
	version   Version
}

// providerStatus never includes the key itself.
type providerStatus struct {
	UpstreamURL   string `json:"upstream_url"`
	KeyConfigured bool   `json:"key_configured"`
}

type statusBody struct {
	Status        string                    `json:"status"`
	Version       string                    `json:"version"`
	Providers     map[string]providerStatus `json:"providers"`
	FMPOperations []provider.Operation      `json:"fmp_operations"`
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(v Version, fred *provider.FRED, fmp *provider.FMP) *HealthHandler {
	return &HealthHandler{
		providers: []provider.Provider{fred, fmp},
		version:   v,
	}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information.
func (h *HealthHandler) Status(c echo.Context) error {
	body := statusBody{
		Status:        "ok",
		Version:       string(h.version),
		Providers:     make(map[string]providerStatus, len(h.providers)),
		FMPOperations: provider.Operations(),
	}
	for _, p := range h.providers {
		body.Providers[p.Name()] = providerStatus{
			UpstreamURL:   p.BaseURL(),
			KeyConfigured: p.APIKey() != "",
		}
	}
	return c.JSON(http.StatusOK, body)
}
