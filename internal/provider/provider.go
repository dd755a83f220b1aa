// Package provider declares the upstream data providers the proxy can reach and
// the parameter rules that turn an inbound query into an upstream request.
package provider

import (
	"fmt"
	"net/url"
	"strings"

	"econ-proxy-go/internal/model"
)

// Provider builds upstream requests for one third-party data API.
type Provider interface {
	// Name is the display name used in error envelopes, e.g. "FRED".
	Name() string
	// KeyName is the configuration name of the provider's secret, e.g. "FRED_KEY".
	KeyName() string
	// APIKey returns the configured secret, or empty string when unset.
	APIKey() string
	// BaseURL returns the configured upstream origin.
	BaseURL() string
	// Build validates query and returns the upstream request with apiKey injected.
	// Validation failures are returned as *ParamError.
	Build(query url.Values, apiKey string) (*model.UpstreamRequest, error)
}

// ParamError reports a rejected inbound parameter. It maps to HTTP 400.
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return e.Message
}

// endpoint joins the configured origin with an API path.
func endpoint(base *url.URL, path string) string {
	return strings.TrimRight(base.String(), "/") + path
}

func parseBase(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base_url %q must be absolute", raw)
	}
	return u, nil
}
