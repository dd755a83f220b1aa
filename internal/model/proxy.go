// Package model defines shared types for the proxy.
package model

import (
	"io"
	"net/http"
	"net/url"
	"strings"
)

// QueryParam is a single upstream query parameter. Order is significant.
type QueryParam struct {
	Key   string
	Value string
}

// UpstreamRequest describes the upstream call derived from one inbound request.
type UpstreamRequest struct {
	Endpoint string // scheme, host and path; no query
	Params   []QueryParam
}

// Add appends a query parameter.
func (r *UpstreamRequest) Add(key, value string) {
	r.Params = append(r.Params, QueryParam{Key: key, Value: value})
}

// Get returns the first value for key, or empty string.
func (r *UpstreamRequest) Get(key string) string {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Has reports whether key is present.
func (r *UpstreamRequest) Has(key string) bool {
	for _, p := range r.Params {
		if p.Key == key {
			return true
		}
	}
	return false
}

// URL renders the endpoint and parameters in declaration order.
// Values are escaped like encodeURIComponent, so spaces become %20.
func (r *UpstreamRequest) URL() string {
	var b strings.Builder
	b.WriteString(r.Endpoint)
	for i, p := range r.Params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(escape(p.Key))
		b.WriteByte('=')
		b.WriteString(escape(p.Value))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ProxyResponse represents the raw upstream response.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
