package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnull-http/devnull/internal/config"
	"github.com/devnull-http/devnull/internal/matcher"
	"github.com/devnull-http/devnull/internal/plugin"
	"github.com/devnull-http/devnull/internal/template"
)

func TestBuild_FirstMatchWinsAcrossPayloads(t *testing.T) {
	registry := template.New()

	parsed := &config.ParsedUserConfig{
		Configs: []config.ResponseConfig{
			{Kind: config.KindStaticHTTP, Static: &config.StaticHTTPConfig{
				ID:      "first",
				Matches: []config.MatchRule{{Path: "/shared"}},
				Responses: []config.ResponseTemplate{
					{Status: 200, Body: config.ResponseBody{Kind: config.BodyRaw, Data: config.ResponseData{Data: "first"}}},
				},
			}},
			{Kind: config.KindStaticHTTP, Static: &config.StaticHTTPConfig{
				ID:      "second",
				Matches: []config.MatchRule{{Path: "/shared"}},
				Responses: []config.ResponseTemplate{
					{Status: 200, Body: config.ResponseBody{Kind: config.BodyRaw, Data: config.ResponseData{Data: "second"}}},
				},
			}},
		},
	}

	eng, err := Build(parsed, registry)
	require.NoError(t, err)

	p, ok := eng.Match(&matcher.Request{Method: "GET", Path: "/shared"})
	require.True(t, ok)
	assert.Equal(t, "first", p.ID)
}

func TestBuild_LuaScriptIsFatalUnimplemented(t *testing.T) {
	registry := template.New()
	parsed := &config.ParsedUserConfig{
		Configs: []config.ResponseConfig{
			{Kind: config.KindLuaScript, Lua: &config.LuaScriptConfig{
				ID:     "script",
				Script: config.ResponseData{Data: "return 1"},
			}},
		},
	}

	_, err := Build(parsed, registry)
	assert.ErrorIs(t, err, plugin.ErrUnimplemented)
}

func TestBuild_WasmPluginIsFatalUnimplemented(t *testing.T) {
	registry := template.New()
	parsed := &config.ParsedUserConfig{
		Configs: []config.ResponseConfig{
			{Kind: config.KindWasmPlugin, Wasm: &config.WasmPluginConfig{
				ID:     "module",
				Module: config.ResponseData{Data: ""},
			}},
		},
	}

	_, err := Build(parsed, registry)
	assert.ErrorIs(t, err, plugin.ErrUnimplemented)
}

func TestDispatch_RenderErrorSwallowedIntoBody(t *testing.T) {
	registry := template.New()
	payload, err := BuildPayload(config.StaticHTTPConfig{
		ID:      "bad-template",
		Matches: []config.MatchRule{{Path: "/x"}},
		Responses: []config.ResponseTemplate{
			{Status: 200, Body: config.ResponseBody{Kind: config.BodyRaw, Data: config.ResponseData{Data: "{{.nope.broken}}"}}},
		},
	}, registry)
	require.NoError(t, err)

	eng := &Engine{Payloads: []*Payload{payload}}

	result, matched, err := Dispatch(context.Background(), eng, registry, &matcher.Request{Method: "GET", Path: "/x"})
	require.NoError(t, err)
	require.True(t, matched)
	assert.Equal(t, 200, result.Status)
	assert.Contains(t, string(result.Body), "error rendering")
}

func TestDispatch_NoMatchReturnsFalse(t *testing.T) {
	registry := template.New()
	eng := &Engine{}

	result, matched, err := Dispatch(context.Background(), eng, registry, &matcher.Request{Method: "GET", Path: "/missing"})
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Nil(t, result)
}

func TestDispatch_CancelledContextDuringDelayReturnsErrCancelled(t *testing.T) {
	registry := template.New()
	payload, err := BuildPayload(config.StaticHTTPConfig{
		ID:      "slow",
		Matches: []config.MatchRule{{Path: "/slow"}},
		Responses: []config.ResponseTemplate{
			{Status: 200, DelayMS: 60000, Body: config.ResponseBody{Kind: config.BodyEmpty}},
		},
	}, registry)
	require.NoError(t, err)

	eng := &Engine{Payloads: []*Payload{payload}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, matched, err := Dispatch(ctx, eng, registry, &matcher.Request{Method: "GET", Path: "/slow"})
	assert.True(t, matched)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestBuildPayload_StatusOutOfRangeIsFatal(t *testing.T) {
	registry := template.New()
	_, err := BuildPayload(config.StaticHTTPConfig{
		ID:      "bad-status",
		Matches: []config.MatchRule{{Path: "/"}},
		Responses: []config.ResponseTemplate{
			{Status: 999, Body: config.ResponseBody{Kind: config.BodyEmpty}},
		},
	}, registry)
	assert.Error(t, err)
}

func TestBuildPayload_OmittedWeightDefaultsToOne(t *testing.T) {
	registry := template.New()
	payload, err := BuildPayload(config.StaticHTTPConfig{
		ID:      "default-weight",
		Matches: []config.MatchRule{{Path: "/"}},
		Responses: []config.ResponseTemplate{
			{Status: 200, Body: config.ResponseBody{Kind: config.BodyEmpty}},
		},
	}, registry)
	require.NoError(t, err)
	assert.Equal(t, 1, payload.Responses.Len())
}

func intPtr(v int) *int { return &v }

func TestBuildPayload_ExplicitZeroWeightResponseIsNeverSelected(t *testing.T) {
	registry := template.New()
	payload, err := BuildPayload(config.StaticHTTPConfig{
		ID:      "mixed-weight",
		Matches: []config.MatchRule{{Path: "/"}},
		Responses: []config.ResponseTemplate{
			{ID: "dead", Status: 200, Weight: intPtr(0), Body: config.ResponseBody{Kind: config.BodyEmpty}},
			{ID: "alive", Status: 200, Weight: intPtr(1), Body: config.ResponseBody{Kind: config.BodyEmpty}},
		},
	}, registry)
	require.NoError(t, err)
	require.Equal(t, 1, payload.Responses.Len())

	for i := 0; i < 10; i++ {
		assert.Equal(t, "alive", payload.Select().ID)
	}
}

func TestBuildPayload_AllExplicitZeroWeightIsEmptyResponseSet(t *testing.T) {
	registry := template.New()
	_, err := BuildPayload(config.StaticHTTPConfig{
		ID:      "all-dead",
		Matches: []config.MatchRule{{Path: "/"}},
		Responses: []config.ResponseTemplate{
			{Status: 200, Weight: intPtr(0), Body: config.ResponseBody{Kind: config.BodyEmpty}},
			{Status: 200, Weight: intPtr(0), Body: config.ResponseBody{Kind: config.BodyEmpty}},
		},
	}, registry)

	var emptyErr *config.EmptyResponseSetError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "all-dead", emptyErr.PayloadID)
}
