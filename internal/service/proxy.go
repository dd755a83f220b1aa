// Package service implements the validated forwarding logic shared by all providers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"econ-proxy-go/internal/client"
	"econ-proxy-go/internal/provider"
)

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"api.stlouisfed.org":        true,
	"financialmodelingprep.com": true,
}

// MissingKeyError is returned when a provider has no API key configured.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return e.Key + " not configured"
}

// UpstreamError is a non-2xx answer from a provider. Detail is the raw body text.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
}

// ProxyService validates inbound queries, calls the provider and returns its JSON body.
type ProxyService struct {
	client *client.UpstreamClient
	logger *slog.Logger
}

// NewProxyService creates a ProxyService after checking every provider points at an
// allowed host.
func NewProxyService(c *client.UpstreamClient, logger *slog.Logger, fred *provider.FRED, fmp *provider.FMP) (*ProxyService, error) {
	for _, p := range []provider.Provider{fred, fmp} {
		u, err := url.Parse(p.BaseURL())
		if err != nil {
			return nil, fmt.Errorf("parse %s base_url: %w", p.Name(), err)
		}
		if !allowedUpstreamHosts[u.Hostname()] {
			return nil, fmt.Errorf("%s upstream host %q is not in the allowlist", p.Name(), u.Hostname())
		}
	}
	return NewProxyServiceForTest(c, logger), nil
}

// NewProxyServiceForTest creates a ProxyService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewProxyServiceForTest(c *client.UpstreamClient, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		client: c,
		logger: logger.With("component", "proxy_service"),
	}
}

// Fetch runs the full validate → build → fetch sequence for one inbound query.
//
// Errors: *MissingKeyError when the provider has no key, *provider.ParamError for
// rejected input, *UpstreamError for a non-2xx provider status. Anything else is a
// transport or decoding failure.
func (s *ProxyService) Fetch(ctx context.Context, p provider.Provider, query url.Values) (json.RawMessage, error) {
	apiKey := p.APIKey()
	if apiKey == "" {
		return nil, &MissingKeyError{Key: p.KeyName()}
	}

	req, err := p.Build(query, apiKey)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Get(ctx, p.Name(), req.URL())
	if err != nil {
		return nil, fmt.Errorf("forward to %s: %w", p.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", p.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Detail:     string(body),
		}
	}

	var payload json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", p.Name(), err)
	}
	return payload, nil
}
