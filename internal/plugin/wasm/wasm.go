// Package wasm is the scaffold for a future wasm-plugin ResponseConfig
// backend. It demonstrates where a real WASM-module backend would hook
// into a wazero runtime, but Compile always fails: WASM-scripted responses
// are not implemented.
package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"

	"github.com/devnull-http/devnull/internal/plugin"
)

// Backend wraps the wazero runtime a real implementation would instantiate
// the module into. The runtime is constructed but the module is never
// loaded.
type Backend struct {
	id      string
	module  []byte
	runtime wazero.Runtime
}

// New constructs a Backend for the given payload id and raw WASM module
// bytes. ctx is used only to build the runtime; it is not retained.
func New(ctx context.Context, id string, module []byte) *Backend {
	return &Backend{
		id:      id,
		module:  module,
		runtime: wazero.NewRuntime(ctx),
	}
}

func (b *Backend) ID() string { return b.id }

// Compile always returns plugin.ErrUnimplemented: WASM-backed response
// backends are out of scope for this server (spec §3 lists WASM as a stub
// ResponseConfig variant).
func (b *Backend) Compile() error {
	return plugin.ErrUnimplemented
}

// Close releases the underlying wazero runtime.
func (b *Backend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}
