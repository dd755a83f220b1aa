package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"econ-proxy-go/internal/config"
	"econ-proxy-go/internal/provider"
)

func TestHealthz(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &HealthHandler{version: "test"}
	if err := h.Healthz(c); err != nil {
		t.Fatalf("Healthz() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want %q", body["status"], "ok")
	}
}

func TestStatus(t *testing.T) {
	cfg := &config.Config{
		FRED: config.ProviderConfig{APIKey: "fred-secret", BaseURL: "https://api.stlouisfed.org"},
		FMP:  config.ProviderConfig{BaseURL: "https://financialmodelingprep.com"},
	}
	fred, err := provider.NewFRED(cfg)
	if err != nil {
		t.Fatalf("NewFRED: %v", err)
	}
	fmp, err := provider.NewFMP(cfg)
	if err != nil {
		t.Fatalf("NewFMP: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/proxy/status", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewHealthHandler("1.2.3", fred, fmp)
	if err := h.Status(c); err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body statusBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("body.status = %q, want %q", body.Status, "ok")
	}
	if body.Version != "1.2.3" {
		t.Errorf("body.version = %q, want %q", body.Version, "1.2.3")
	}
	if got := body.Providers["FRED"]; got.UpstreamURL != "https://api.stlouisfed.org" || !got.KeyConfigured {
		t.Errorf("FRED status = %+v", got)
	}
	if got := body.Providers["FMP"]; got.UpstreamURL != "https://financialmodelingprep.com" || got.KeyConfigured {
		t.Errorf("FMP status = %+v", got)
	}
	if len(body.FMPOperations) != 3 {
		t.Errorf("fmp_operations = %v, want 3 entries", body.FMPOperations)
	}
	if strings.Contains(rec.Body.String(), "fred-secret") {
		t.Errorf("status leaks API key: %s", rec.Body.String())
	}
}
