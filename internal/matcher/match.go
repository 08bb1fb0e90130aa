package matcher

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request is the subset of an inbound HTTP request the predicate needs.
// Body is nil for a zero-length body (spec §4.5's empty-body
// normalization happens upstream, in the request pipeline).
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    []byte
}

// Match evaluates the short-circuit predicate of spec §4.5 in order:
// method, path, query, headers, graphql.
func (m *CompiledMatcher) Match(req *Request) bool {
	if !m.Methods.Matches(req.Method) {
		return false
	}

	if m.Path != nil && !m.Path.MatchString(req.Path) {
		return false
	}

	if !m.matchQuery(req.Query) {
		return false
	}

	if !m.matchHeaders(req.Headers) {
		return false
	}

	if !m.matchGraphQL(req.Body) {
		return false
	}

	return true
}

func (m *CompiledMatcher) matchQuery(query url.Values) bool {
	for _, qm := range m.Query {
		values, ok := query[qm.Name]
		if !ok || len(values) == 0 {
			return false
		}
		for _, v := range values {
			if !qm.Regex.MatchString(v) {
				return false
			}
		}
	}
	return true
}

func (m *CompiledMatcher) matchHeaders(headers http.Header) bool {
	for _, hm := range m.Headers {
		values := headers[hm.Name]
		found := false
		for _, v := range values {
			if hm.Regex.MatchString(v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *CompiledMatcher) matchGraphQL(body []byte) bool {
	if m.GraphQL == nil {
		return true
	}
	if body == nil {
		return false
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}

	raw, ok := payload["operationName"]
	if !ok {
		return false
	}

	var operationName string
	if err := json.Unmarshal(raw, &operationName); err != nil {
		return false
	}

	return m.GraphQL.MatchString(operationName)
}
