package provider

import (
	"net/url"
	"strconv"

	"econ-proxy-go/internal/config"
	"econ-proxy-go/internal/model"
)

const (
	fredObservationsPath = "/fred/series/observations"

	defaultObservationLimit = 24
	maxObservationLimit     = 100
)

var (
	seriesRule = Rule{
		Name:     "series",
		Match:    matches(identifierPattern),
		Required: true,
		Missing:  "series param required",
		Invalid:  "Invalid series ID format",
	}
	unitsRule            = Rule{Name: "units", Match: oneOf(unitCodes...)}
	observationStartRule = Rule{Name: "observation_start", Match: matches(datePattern)}
)

// FRED proxies the St. Louis Fed series observations endpoint.
type FRED struct {
	base   *url.URL
	apiKey string
}

// NewFRED creates the FRED provider from its config section.
func NewFRED(cfg *config.Config) (*FRED, error) {
	u, err := parseBase(cfg.FRED.BaseURL)
	if err != nil {
		return nil, err
	}
	return &FRED{base: u, apiKey: cfg.FRED.APIKey}, nil
}

func (p *FRED) Name() string    { return "FRED" }
func (p *FRED) KeyName() string { return "FRED_KEY" }
func (p *FRED) APIKey() string  { return p.apiKey }
func (p *FRED) BaseURL() string { return p.base.String() }

// Build returns the observations request for the series named in query.
// Only series is mandatory; a malformed units or observation_start is left out.
func (p *FRED) Build(query url.Values, apiKey string) (*model.UpstreamRequest, error) {
	req := &model.UpstreamRequest{Endpoint: endpoint(p.base, fredObservationsPath)}

	if err := seriesRule.Apply(query, req, "series_id"); err != nil {
		return nil, err
	}
	limit := clampInt(query.Get("limit"), defaultObservationLimit, maxObservationLimit)
	req.Add("limit", strconv.Itoa(limit))
	req.Add("sort_order", "desc")
	req.Add("api_key", apiKey)
	req.Add("file_type", "json")

	for _, r := range []Rule{unitsRule, observationStartRule} {
		if err := r.Apply(query, req, r.Name); err != nil {
			return nil, err
		}
	}
	return req, nil
}
