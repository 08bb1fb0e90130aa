// Package matcher compiles declarative config.MatchRule values into the
// regex/method-set form the request pipeline evaluates per request.
package matcher

import "regexp"

// QueryMatcher pairs a query parameter name with the regex every value
// under that name must satisfy.
type QueryMatcher struct {
	Name  string
	Regex *regexp.Regexp
}

// HeaderMatcher pairs a canonicalized header name with the regex at least
// one value under that name must satisfy.
type HeaderMatcher struct {
	Name  string
	Regex *regexp.Regexp
}

// CompiledMatcher is the searchable form of a config.MatchRule. A nil Path
// or GraphQL regex means that axis is unconstrained (wildcard).
type CompiledMatcher struct {
	Methods MethodSet
	Path    *regexp.Regexp
	Query   []QueryMatcher
	Headers []HeaderMatcher
	GraphQL *regexp.Regexp
}
