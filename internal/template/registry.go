// Package template implements the process-wide registry of named response
// body templates described in spec §4.4: single-writer/multi-reader
// registration, with `uuid` and `id` helpers shared across the process.
package template

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"text/template"

	"github.com/google/uuid"
)

// Registry is safe for concurrent use: Register takes an exclusive guard
// for the duration of compilation and swap; Render takes a shared guard for
// the duration of execution. A render never observes a partially-registered
// template because the swap is a single pointer write under the write lock.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	idCounter atomic.Uint64
}

// New returns an empty registry. The id counter and the map are owned by
// this instance; devnull keeps one process-wide Registry for the lifetime
// of the server.
func New() *Registry {
	return &Registry{
		templates: make(map[string]*template.Template),
	}
}

// Register compiles source under the given id, replacing any prior
// template registered under that id. HTML escaping is disabled (text/
// template, not html/template) per spec §4.4.
func (r *Registry) Register(id, source string) error {
	tmpl, err := template.New(id).Funcs(r.helperFuncs()).Parse(source)
	if err != nil {
		return fmt.Errorf("template %q: %w", id, err)
	}

	r.mu.Lock()
	r.templates[id] = tmpl
	r.mu.Unlock()
	return nil
}

// Variables is the render-time variable bag exposed to a template, per
// spec §4.4's canonical surface plus the legacy aliases the original
// pipeline also exposed.
type Variables struct {
	PayloadID   string
	RequestBody *string
}

func (v Variables) asMap() map[string]interface{} {
	var body interface{}
	if v.RequestBody != nil {
		body = *v.RequestBody
	}
	return map[string]interface{}{
		"payload_id":   v.PayloadID,
		"request_body": body,

		// Legacy variable-form aliases; the named helpers (uuid, id) are the
		// canonical surface and remain the recommended way to reach them.
		"plugin_id":          v.PayloadID,
		"dev_null_plugin_id": v.PayloadID,
		"dev_null_payload_id": v.PayloadID,
	}
}

// Render executes the template registered under id against vars. A missing
// id or an execution error is returned to the caller; the request pipeline
// (spec §4.5) is responsible for turning that into the literal
// error-message body and continuing.
func (r *Registry) Render(id string, vars Variables) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[id]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("template %q not registered", id)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars.asMap()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// helperFuncs returns the uuid/id helper FuncMap. uuid mints a fresh UUID
// v4 per invocation; id fetch-adds the registry's process-wide counter.
func (r *Registry) helperFuncs() template.FuncMap {
	return template.FuncMap{
		"uuid": func() string {
			return uuid.New().String()
		},
		"id": func() uint64 {
			return r.idCounter.Add(1)
		},
	}
}
