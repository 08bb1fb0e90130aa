// Package lua is the scaffold for a future lua-script ResponseConfig
// backend. It demonstrates where a real Lua-script backend would hook into
// a *lua.LState, but Compile always fails: scripted responses are not
// implemented.
package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/devnull-http/devnull/internal/plugin"
)

// Backend wraps the Lua state a real implementation would use to execute a
// request-handling script. The state is constructed but never invoked.
type Backend struct {
	id     string
	script string
	state  *lua.LState
}

// New constructs a Backend for the given payload id and script source. The
// interpreter state is allocated so that Close has something real to
// release, even though Compile never runs the script.
func New(id, script string) *Backend {
	return &Backend{
		id:     id,
		script: script,
		state:  lua.NewState(),
	}
}

func (b *Backend) ID() string { return b.id }

// Compile always returns plugin.ErrUnimplemented: scripted response
// backends are out of scope for this server (spec §3 lists Lua as a stub
// ResponseConfig variant).
func (b *Backend) Compile() error {
	return plugin.ErrUnimplemented
}

// Close releases the underlying Lua interpreter state.
func (b *Backend) Close() {
	b.state.Close()
}
