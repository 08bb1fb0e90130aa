package matcher

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/devnull-http/devnull/internal/config"
)

// Compile transforms a declarative config.MatchRule into a CompiledMatcher.
// Regex compilation failure (path, header, query, or graphql) and an
// unparseable method are fatal compile errors, per spec §4.2.
func Compile(rule config.MatchRule) (*CompiledMatcher, error) {
	methods, err := ParseMethodSet(rule.Methods)
	if err != nil {
		return nil, fmt.Errorf("methods: %w", err)
	}

	var pathRe *regexp.Regexp
	if rule.Path != "" {
		pathRe, err = regexp.Compile("^" + rule.Path + "$")
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
	}

	var queryMatchers []QueryMatcher
	for name, source := range rule.Query {
		re, err := regexp.Compile(source)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", name, err)
		}
		queryMatchers = append(queryMatchers, QueryMatcher{Name: name, Regex: re})
	}

	var headerMatchers []HeaderMatcher
	for name, source := range rule.Headers {
		re, err := regexp.Compile(source)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", name, err)
		}
		// Canonicalize so runtime lookups are case-insensitive regardless of
		// how the header name was cased in config, per spec §4.2.
		headerMatchers = append(headerMatchers, HeaderMatcher{Name: http.CanonicalHeaderKey(name), Regex: re})
	}

	var graphqlRe *regexp.Regexp
	if rule.GraphQL != nil {
		graphqlRe, err = regexp.Compile(rule.GraphQL.OperationName)
		if err != nil {
			return nil, fmt.Errorf("graphql operation-name: %w", err)
		}
	}

	return &CompiledMatcher{
		Methods: methods,
		Path:    pathRe,
		Query:   queryMatchers,
		Headers: headerMatchers,
		GraphQL: graphqlRe,
	}, nil
}
