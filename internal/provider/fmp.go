package provider

import (
	"net/url"
	"strings"

	"econ-proxy-go/internal/config"
	"econ-proxy-go/internal/model"
)

// Operation is the value of the FMP "type" discriminator.
type Operation string

const (
	OpCalendar  Operation = "calendar"
	OpTreasury  Operation = "treasury"
	OpIndicator Operation = "indicator"
)

// operationOrder fixes the order used in error messages.
var operationOrder = []Operation{OpCalendar, OpTreasury, OpIndicator}

var (
	fromRule = Rule{Name: "from", Match: matches(datePattern)}
	toRule   = Rule{Name: "to", Match: matches(datePattern)}
	nameRule = Rule{
		Name:     "name",
		Match:    matches(namePattern),
		Required: true,
		Missing:  "Invalid indicator name",
		Invalid:  "Invalid indicator name",
	}
)

// fmpOperation is the strategy for one discriminator value: the upstream path and
// the parameters in upstream order. The apikey marker places the injected secret.
type fmpOperation struct {
	path   string
	params []fmpParam
}

type fmpParam struct {
	rule   Rule
	apiKey bool
}

var apiKeyParam = fmpParam{apiKey: true}

var fmpOperations = map[Operation]fmpOperation{
	OpCalendar: {
		path:   "/api/v3/economic_calendar",
		params: []fmpParam{apiKeyParam, {rule: fromRule}, {rule: toRule}},
	},
	OpTreasury: {
		path:   "/api/v4/treasury",
		params: []fmpParam{apiKeyParam, {rule: fromRule}, {rule: toRule}},
	},
	OpIndicator: {
		path:   "/api/v3/economic",
		params: []fmpParam{{rule: nameRule}, apiKeyParam},
	},
}

// FMP proxies Financial Modeling Prep economic endpoints selected by "type".
type FMP struct {
	base   *url.URL
	apiKey string
}

// NewFMP creates the FMP provider from its config section.
func NewFMP(cfg *config.Config) (*FMP, error) {
	u, err := parseBase(cfg.FMP.BaseURL)
	if err != nil {
		return nil, err
	}
	return &FMP{base: u, apiKey: cfg.FMP.APIKey}, nil
}

func (p *FMP) Name() string    { return "FMP" }
func (p *FMP) KeyName() string { return "FMP_KEY" }
func (p *FMP) APIKey() string  { return p.apiKey }
func (p *FMP) BaseURL() string { return p.base.String() }

// Build dispatches on the "type" parameter.
func (p *FMP) Build(query url.Values, apiKey string) (*model.UpstreamRequest, error) {
	t := query.Get("type")
	if t == "" {
		return nil, &ParamError{
			Param:   "type",
			Message: "type param required (" + operationList() + ")",
		}
	}
	op, ok := fmpOperations[Operation(t)]
	if !ok {
		return nil, &ParamError{
			Param:   "type",
			Message: "Invalid type. Use: " + operationList(),
		}
	}

	req := &model.UpstreamRequest{Endpoint: endpoint(p.base, op.path)}
	for _, prm := range op.params {
		if prm.apiKey {
			req.Add("apikey", apiKey)
			continue
		}
		if err := prm.rule.Apply(query, req, prm.rule.Name); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Operations returns the supported discriminator values in display order.
func Operations() []Operation {
	return append([]Operation(nil), operationOrder...)
}

func operationList() string {
	names := make([]string, len(operationOrder))
	for i, op := range operationOrder {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}
