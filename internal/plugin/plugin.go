// Package plugin defines the shared contract for non-static ResponseConfig
// backends. Only the static-http backend (internal/engine) is fully
// implemented; the lua and wasm subpackages compile their config but always
// fail to produce a running Backend, per spec §3.
package plugin

import "errors"

// ErrUnimplemented is returned by a plugin Backend's Compile method. It is
// fatal at load time and logged-and-retained at reload time, exactly like
// config.ParseError and matcher compile errors (spec §7).
var ErrUnimplemented = errors.New("plugin: backend not implemented")

// Backend is a pluggable response-generation strategy behind a Payload
// variant. static-http implements this fully; lua-script and wasm-plugin
// always return ErrUnimplemented from Compile.
type Backend interface {
	// ID is the owning payload's stable identifier.
	ID() string
	// Compile prepares the backend to serve requests, or returns an error
	// (always ErrUnimplemented for the stub backends).
	Compile() error
}
