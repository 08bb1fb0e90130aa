// Package config defines the declarative schema for devnull's configuration
// tree: the root document, response config files, and the bodies they embed.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RootConfig is the document pointed to by --config. It names the glob
// patterns under which response config files are discovered, and carries
// the ambient settings (logging, metrics, reload cadence) that apply to
// the whole process.
type RootConfig struct {
	Responses      ResponsesConfig `yaml:"responses"`
	ReloadInterval string          `yaml:"reload_interval,omitempty"`
	Log            LogConfig       `yaml:"log,omitempty"`
	Metrics        MetricsConfig   `yaml:"metrics,omitempty"`
}

// ResponsesConfig holds the glob patterns resolved relative to the root
// config's own directory.
type ResponsesConfig struct {
	Paths []string `yaml:"paths"`
}

// LogConfig configures the process-wide structured logger.
type LogConfig struct {
	Level  string        `yaml:"level,omitempty"`
	Format string        `yaml:"format,omitempty"`
	File   LogFileConfig `yaml:"file,omitempty"`
}

// LogFileConfig configures optional rotated file output.
type LogFileConfig struct {
	Path       string `yaml:"path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
}

// MetricsConfig configures the optional Prometheus side listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// ResponseConfigKind is the `type` discriminant of a response config file.
type ResponseConfigKind string

const (
	KindStaticHTTP ResponseConfigKind = "static-http"
	KindLuaScript  ResponseConfigKind = "lua-script"
	KindWasmPlugin ResponseConfigKind = "wasm-plugin"
)

// ResponseConfig is the tagged variant read from a single response config
// file. Only one of the Static/Lua/Wasm fields is populated, selected by
// Kind.
type ResponseConfig struct {
	Kind   ResponseConfigKind
	Static *StaticHTTPConfig
	Lua    *LuaScriptConfig
	Wasm   *WasmPluginConfig
}

// UnmarshalYAML dispatches on the `type` field to decode the right variant.
// An unrecognized type is a fatal schema error, matching the Loader's
// "deserialization error during steps 1, 3 is fatal" rule.
func (rc *ResponseConfig) UnmarshalYAML(node *yaml.Node) error {
	var probe struct {
		Type ResponseConfigKind `yaml:"type"`
	}
	if err := node.Decode(&probe); err != nil {
		return err
	}

	switch probe.Type {
	case KindStaticHTTP:
		var s StaticHTTPConfig
		if err := node.Decode(&s); err != nil {
			return err
		}
		rc.Kind = KindStaticHTTP
		rc.Static = &s
	case KindLuaScript:
		var l LuaScriptConfig
		if err := node.Decode(&l); err != nil {
			return err
		}
		rc.Kind = KindLuaScript
		rc.Lua = &l
	case KindWasmPlugin:
		var w WasmPluginConfig
		if err := node.Decode(&w); err != nil {
			return err
		}
		rc.Kind = KindWasmPlugin
		rc.Wasm = &w
	default:
		return fmt.Errorf("unknown response config type %q", probe.Type)
	}

	return nil
}

// StaticHTTPConfig is the sole fully-implemented ResponseConfig variant: a
// Payload's declarative matchers and response templates.
type StaticHTTPConfig struct {
	ID        string                `yaml:"id,omitempty"`
	Matches   []MatchRule           `yaml:"matches"`
	Responses []ResponseTemplate    `yaml:"responses"`
}

// LuaScriptConfig and WasmPluginConfig parse successfully but are rejected
// by the Loader's backend compiler with plugin.ErrUnimplemented — see
// internal/plugin.
type LuaScriptConfig struct {
	ID      string       `yaml:"id,omitempty"`
	Matches []MatchRule  `yaml:"matches"`
	Script  ResponseData `yaml:"script"`
}

type WasmPluginConfig struct {
	ID      string       `yaml:"id,omitempty"`
	Matches []MatchRule  `yaml:"matches"`
	Module  ResponseData `yaml:"module"`
}

// MatchRule is one disjunct of a Payload's matcher set. Every field is
// optional; an absent field is a wildcard for that axis.
type MatchRule struct {
	Methods []string           `yaml:"methods,omitempty"`
	Path    string             `yaml:"path,omitempty"`
	Query   map[string]string  `yaml:"query,omitempty"`
	Headers map[string]string  `yaml:"headers,omitempty"`
	GraphQL *GraphQLMatchRule  `yaml:"graphql,omitempty"`
}

// GraphQLMatchRule constrains the request body's operationName field.
type GraphQLMatchRule struct {
	OperationName string `yaml:"operation-name"`
}

// ResponseTemplate is one weighted, possibly-templated response variant.
// Weight is a pointer so an absent field (default to 1) can be told apart
// from an explicit `weight: 0` (never selected), per spec §3.
type ResponseTemplate struct {
	ID      string            `yaml:"id,omitempty"`
	Weight  *int              `yaml:"weight,omitempty"`
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    ResponseBody      `yaml:"body,omitempty"`
	DelayMS uint64            `yaml:"delay,omitempty"`
}

// ResponseBodyKind discriminates the ResponseTemplate body variant.
type ResponseBodyKind string

const (
	BodyRaw   ResponseBodyKind = "raw"
	BodyJSON  ResponseBodyKind = "json"
	BodyEmpty ResponseBodyKind = "empty"
)

// ResponseBody is the tagged `body` field of a ResponseTemplate. Empty Kind
// (zero value, no `type` given) is treated as BodyEmpty.
type ResponseBody struct {
	Kind ResponseBodyKind
	Data ResponseData
}

func (b *ResponseBody) UnmarshalYAML(node *yaml.Node) error {
	var probe struct {
		Type ResponseBodyKind `yaml:"type"`
	}
	if err := node.Decode(&probe); err != nil {
		return err
	}

	switch probe.Type {
	case "", BodyEmpty:
		b.Kind = BodyEmpty
		return nil
	case BodyRaw:
		b.Kind = BodyRaw
	case BodyJSON:
		b.Kind = BodyJSON
	default:
		return fmt.Errorf("unknown response body type %q", probe.Type)
	}

	var data ResponseData
	if err := node.Decode(&data); err != nil {
		return err
	}
	b.Data = data
	return nil
}

// ResponseData is the on-disk body indirection: either inline text or a
// path to a sibling file, resolved once by the Loader (see loader.go) into
// a plain in-memory string so the request pipeline never touches the
// filesystem.
type ResponseData struct {
	Data string `yaml:"data,omitempty"`
	File string `yaml:"file,omitempty"`
}

func (rd *ResponseData) UnmarshalYAML(node *yaml.Node) error {
	type plain ResponseData
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*rd = ResponseData(p)
	if rd.Data != "" && rd.File != "" {
		return fmt.Errorf("response data may specify either data or file, not both")
	}
	return nil
}

// IsFile reports whether this ResponseData sources from a sibling file.
func (rd ResponseData) IsFile() bool {
	return rd.File != ""
}
