package engine

import (
	"context"
	"fmt"

	"github.com/devnull-http/devnull/internal/config"
	"github.com/devnull-http/devnull/internal/matcher"
	pluginlua "github.com/devnull-http/devnull/internal/plugin/lua"
	pluginwasm "github.com/devnull-http/devnull/internal/plugin/wasm"
	"github.com/devnull-http/devnull/internal/template"
)

// Engine is the ordered list of Payloads consulted per request. The search
// walks them in insertion order and returns the first match, per spec §3.
type Engine struct {
	Payloads []*Payload
}

// Build compiles a config.ParsedUserConfig into an Engine, registering
// every static-http response body with registry. A lua-script or
// wasm-plugin entry parses but fails to compile into a backend
// (plugin.ErrUnimplemented), which is fatal for the whole Build call,
// matching spec §3's "terminate with an unimplemented error at load time".
func Build(parsed *config.ParsedUserConfig, registry *template.Registry) (*Engine, error) {
	var payloads []*Payload

	for _, rc := range parsed.Configs {
		switch rc.Kind {
		case config.KindStaticHTTP:
			p, err := BuildPayload(*rc.Static, registry)
			if err != nil {
				return nil, err
			}
			payloads = append(payloads, p)

		case config.KindLuaScript:
			backend := pluginlua.New(rc.Lua.ID, rc.Lua.Script.Data)
			defer backend.Close()
			if err := backend.Compile(); err != nil {
				return nil, fmt.Errorf("lua-script %s: %w", rc.Lua.ID, err)
			}

		case config.KindWasmPlugin:
			ctx := context.Background()
			backend := pluginwasm.New(ctx, rc.Wasm.ID, []byte(rc.Wasm.Module.Data))
			defer backend.Close(ctx)
			if err := backend.Compile(); err != nil {
				return nil, fmt.Errorf("wasm-plugin %s: %w", rc.Wasm.ID, err)
			}

		default:
			return nil, fmt.Errorf("unsupported response config kind %q", rc.Kind)
		}
	}

	return &Engine{Payloads: payloads}, nil
}

// Match walks Payloads in order and returns the first one whose predicate
// matches req.
func (e *Engine) Match(req *matcher.Request) (*Payload, bool) {
	for _, p := range e.Payloads {
		if p.Matches(req) {
			return p, true
		}
	}
	return nil, false
}
