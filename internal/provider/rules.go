package provider

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"econ-proxy-go/internal/model"
)

var (
	datePattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	namePattern       = regexp.MustCompile(`^[A-Za-z_ ]{1,80}$`)
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,50}$`)
)

// unitCodes is the closed set of FRED data transformations.
var unitCodes = []string{"lin", "chg", "ch1", "pch", "pc1", "pca", "cch", "cca", "log"}

// Rule validates one inbound query parameter.
//
// A required rule rejects the request when the parameter is missing or fails Match.
// An optional rule never rejects: an invalid value is dropped and not forwarded.
type Rule struct {
	Name     string
	Match    func(string) bool
	Required bool
	Missing  string // 400 message when a required parameter is absent
	Invalid  string // 400 message when a required parameter fails Match
}

// Check returns the validated value of a required parameter.
func (r Rule) Check(q url.Values) (string, error) {
	v := q.Get(r.Name)
	if v == "" {
		return "", &ParamError{Param: r.Name, Message: r.Missing}
	}
	if !r.Match(v) {
		return "", &ParamError{Param: r.Name, Message: r.Invalid}
	}
	return v, nil
}

// Optional returns the value of an optional parameter and whether it should be forwarded.
func (r Rule) Optional(q url.Values) (string, bool) {
	v := q.Get(r.Name)
	if v == "" || !r.Match(v) {
		return "", false
	}
	return v, true
}

// Apply validates the parameter and, when accepted, appends it to req as key.
func (r Rule) Apply(q url.Values, req *model.UpstreamRequest, key string) error {
	if r.Required {
		v, err := r.Check(q)
		if err != nil {
			return err
		}
		req.Add(key, v)
		return nil
	}
	if v, ok := r.Optional(q); ok {
		req.Add(key, v)
	}
	return nil
}

func matches(re *regexp.Regexp) func(string) bool {
	return re.MatchString
}

func oneOf(values ...string) func(string) bool {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(s string) bool {
		_, ok := set[s]
		return ok
	}
}

// clampInt reads the integer at the start of s, so "12abc" and "1.5" count as
// 12 and 1. Absent, unparseable or non-positive values yield def; the result
// never exceeds ceiling.
func clampInt(s string, def, ceiling int) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(s)
	}
	if end == 0 || sign == "-" {
		return min(def, ceiling)
	}

	n, err := strconv.Atoi(s[:end])
	switch {
	case errors.Is(err, strconv.ErrRange):
		return ceiling
	case err != nil || n <= 0:
		n = def
	}
	return min(n, ceiling)
}
