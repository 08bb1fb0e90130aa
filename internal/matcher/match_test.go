package matcher

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnull-http/devnull/internal/config"
)

func TestMatch_MethodPathQueryHeaderShortCircuit(t *testing.T) {
	cm, err := Compile(config.MatchRule{
		Methods: []string{"get", "post"},
		Path:    "/widgets/[0-9]+",
		Query:   map[string]string{"color": "^red$"},
		Headers: map[string]string{"x-api-key": "^secret$"},
	})
	require.NoError(t, err)

	ok := cm.Match(&Request{
		Method:  "GET",
		Path:    "/widgets/42",
		Query:   url.Values{"color": {"red"}},
		Headers: http.Header{"X-Api-Key": {"secret"}},
	})
	assert.True(t, ok)

	assert.False(t, cm.Match(&Request{
		Method:  "DELETE",
		Path:    "/widgets/42",
		Query:   url.Values{"color": {"red"}},
		Headers: http.Header{"X-Api-Key": {"secret"}},
	}), "method should reject before other axes are consulted")

	assert.False(t, cm.Match(&Request{
		Method:  "GET",
		Path:    "/widgets/abc",
		Query:   url.Values{"color": {"red"}},
		Headers: http.Header{"X-Api-Key": {"secret"}},
	}))

	assert.False(t, cm.Match(&Request{
		Method:  "GET",
		Path:    "/widgets/42",
		Query:   url.Values{"color": {"blue"}},
		Headers: http.Header{"X-Api-Key": {"secret"}},
	}))

	assert.False(t, cm.Match(&Request{
		Method:  "GET",
		Path:    "/widgets/42",
		Query:   url.Values{"color": {"red"}},
		Headers: http.Header{"X-Api-Key": {"wrong"}},
	}))
}

func TestMatch_EmptyRuleIsWildcard(t *testing.T) {
	cm, err := Compile(config.MatchRule{})
	require.NoError(t, err)

	assert.True(t, cm.Match(&Request{Method: "PATCH", Path: "/anything"}))
}

func TestMatch_GraphQLOperationNameMustBePresent(t *testing.T) {
	cm, err := Compile(config.MatchRule{
		GraphQL: &config.GraphQLMatchRule{OperationName: "^GetUser$"},
	})
	require.NoError(t, err)

	assert.True(t, cm.Match(&Request{Body: []byte(`{"operationName":"GetUser","query":"..."}`)}))
	assert.False(t, cm.Match(&Request{Body: []byte(`{"operationName":"","query":"..."}`)}),
		"present-but-empty operationName must not satisfy a non-empty pattern")
	assert.False(t, cm.Match(&Request{Body: []byte(`{"query":"..."}`)}),
		"missing operationName field must not match")
	assert.False(t, cm.Match(&Request{Body: nil}), "nil body must not match a graphql rule")
}

func TestCompile_InvalidRegexIsFatal(t *testing.T) {
	_, err := Compile(config.MatchRule{Path: "("})
	assert.Error(t, err)
}

func TestCompile_InvalidMethodIsFatal(t *testing.T) {
	_, err := Compile(config.MatchRule{Methods: []string{"get get"}})
	assert.Error(t, err)
}

func TestMethodSet_EmptyMatchesAny(t *testing.T) {
	set, err := ParseMethodSet(nil)
	require.NoError(t, err)
	assert.True(t, set.Matches("TRACE"))
}
