package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"econ-proxy-go/internal/client"
	"econ-proxy-go/internal/config"
	"econ-proxy-go/internal/provider"
)

// newTestSetup wires a service and both providers against upstreamURL.
func newTestSetup(t *testing.T, upstreamURL, fredKey, fmpKey string) (*ProxyService, *provider.FRED, *provider.FMP) {
	t.Helper()
	cfg := &config.Config{
		FRED: config.ProviderConfig{APIKey: fredKey, BaseURL: upstreamURL},
		FMP:  config.ProviderConfig{APIKey: fmpKey, BaseURL: upstreamURL},
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fred, err := provider.NewFRED(cfg)
	if err != nil {
		t.Fatalf("NewFRED: %v", err)
	}
	fmp, err := provider.NewFMP(cfg)
	if err != nil {
		t.Fatalf("NewFMP: %v", err)
	}
	return NewProxyServiceForTest(client.NewUpstreamClient(cfg, logger, nil), logger), fred, fmp
}

func TestFetch_FRED_HappyPath(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fred/series/observations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		checks := map[string]string{
			"series_id":  "GDP",
			"limit":      "100",
			"sort_order": "desc",
			"api_key":    "fred-key",
			"file_type":  "json",
			"units":      "pch",
		}
		for k, want := range checks {
			if got := q.Get(k); got != want {
				t.Errorf("%s = %q, want %q", k, got, want)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foo":1}`))
	}))
	defer upstream.Close()

	svc, fred, _ := newTestSetup(t, upstream.URL, "fred-key", "fmp-key")

	body, err := svc.Fetch(context.Background(), fred, url.Values{
		"series": {"GDP"},
		"limit":  {"500"},
		"units":  {"pch"},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != `{"foo":1}` {
		t.Errorf("body = %q, want %q", body, `{"foo":1}`)
	}
}

func TestFetch_FMP_Indicator(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/economic" {
			t.Errorf("path = %q, want /api/v3/economic", r.URL.Path)
		}
		if got := r.URL.Query().Get("name"); got != "GDP" {
			t.Errorf("name = %q, want GDP", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "fmp-key" {
			t.Errorf("apikey = %q, want fmp-key", got)
		}
		_, _ = w.Write([]byte(`[{"date":"2024-01-01","value":1}]`))
	}))
	defer upstream.Close()

	svc, _, fmp := newTestSetup(t, upstream.URL, "fred-key", "fmp-key")

	body, err := svc.Fetch(context.Background(), fmp, url.Values{"type": {"indicator"}, "name": {"GDP"}})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != `[{"date":"2024-01-01","value":1}]` {
		t.Errorf("body = %q", body)
	}
}

func TestFetch_MissingKey(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer upstream.Close()

	svc, fred, fmp := newTestSetup(t, upstream.URL, "", "")

	tests := []struct {
		name string
		p    provider.Provider
		want string
	}{
		{"fred", fred, "FRED_KEY not configured"},
		{"fmp", fmp, "FMP_KEY not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Invalid input must not mask the configuration error.
			_, err := svc.Fetch(context.Background(), tt.p, url.Values{})
			var mk *MissingKeyError
			if !errors.As(err, &mk) {
				t.Fatalf("Fetch() error = %v, want *MissingKeyError", err)
			}
			if mk.Error() != tt.want {
				t.Errorf("error = %q, want %q", mk.Error(), tt.want)
			}
		})
	}
	if called {
		t.Error("upstream should not be called without a key")
	}
}

func TestFetch_ParamErrorSkipsUpstream(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer upstream.Close()

	svc, fred, _ := newTestSetup(t, upstream.URL, "fred-key", "fmp-key")

	_, err := svc.Fetch(context.Background(), fred, url.Values{"series": {"bad-id!"}})
	var pe *provider.ParamError
	if !errors.As(err, &pe) {
		t.Fatalf("Fetch() error = %v, want *provider.ParamError", err)
	}
	if called {
		t.Error("upstream should not be called for rejected input")
	}
}

func TestFetch_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer upstream.Close()

	svc, fred, _ := newTestSetup(t, upstream.URL, "fred-key", "fmp-key")

	_, err := svc.Fetch(context.Background(), fred, url.Values{"series": {"GDP"}})
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Fetch() error = %v, want *UpstreamError", err)
	}
	if ue.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", ue.StatusCode)
	}
	if ue.Detail != "rate limited" {
		t.Errorf("Detail = %q, want %q", ue.Detail, "rate limited")
	}
	if ue.Error() != "FRED API error: 503" {
		t.Errorf("Error() = %q, want %q", ue.Error(), "FRED API error: 503")
	}
}

func TestFetch_MalformedJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer upstream.Close()

	svc, _, fmp := newTestSetup(t, upstream.URL, "fred-key", "fmp-key")

	_, err := svc.Fetch(context.Background(), fmp, url.Values{"type": {"treasury"}})
	if err == nil {
		t.Fatal("Fetch() expected decode error, got nil")
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		t.Errorf("decode failure should not be an UpstreamError")
	}
}

func TestFetch_TransportError(t *testing.T) {
	svc, fred, _ := newTestSetup(t, "http://127.0.0.1:1", "fred-key", "fmp-key")

	_, err := svc.Fetch(context.Background(), fred, url.Values{"series": {"GDP"}})
	if err == nil {
		t.Fatal("Fetch() expected transport error, got nil")
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		t.Errorf("transport failure should not be an UpstreamError")
	}
}

func TestNewProxyService_Allowlist(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		fredURL string
		fmpURL  string
		wantErr bool
	}{
		{"production hosts", "https://api.stlouisfed.org", "https://financialmodelingprep.com", false},
		{"unknown fred host", "https://evil.com", "https://financialmodelingprep.com", true},
		{"unknown fmp host", "https://api.stlouisfed.org", "https://evil.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				FRED: config.ProviderConfig{BaseURL: tt.fredURL},
				FMP:  config.ProviderConfig{BaseURL: tt.fmpURL},
			}
			fred, err := provider.NewFRED(cfg)
			if err != nil {
				t.Fatalf("NewFRED: %v", err)
			}
			fmp, err := provider.NewFMP(cfg)
			if err != nil {
				t.Fatalf("NewFMP: %v", err)
			}

			svc, err := NewProxyService(nil, logger, fred, fmp)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewProxyService() expected error for disallowed host, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProxyService() error = %v", err)
			}
			if svc == nil {
				t.Fatal("NewProxyService() returned nil service")
			}
		})
	}
}
