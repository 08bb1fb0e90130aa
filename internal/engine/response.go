// Package engine assembles the compiled, per-request dispatch structures
// (Payload, Engine) from config.ParsedUserConfig: matcher compilation,
// response-container construction, and template registration.
package engine

import (
	"fmt"
	"net/textproto"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/devnull-http/devnull/internal/config"
	"github.com/devnull-http/devnull/internal/template"
)

// invalidHeaderValue matches characters illegal in an HTTP header value
// (bare CR/LF, which would allow header injection).
var invalidHeaderValue = regexp.MustCompile(`[\r\n]`)

// CompiledResponse is the in-memory form of a config.ResponseTemplate: a
// status, a header map, the id under which its body is registered with the
// Template Registry, and a delay.
type CompiledResponse struct {
	ID         string
	Weight     int
	Status     int
	Headers    map[string]string
	TemplateID string
	Delay      time.Duration
}

// SelectionWeight implements rotation.Weighted.
func (c *CompiledResponse) SelectionWeight() int {
	return c.Weight
}

// buildResponse compiles one config.ResponseTemplate into a CompiledResponse
// and registers its body with registry under c.TemplateID. Header values
// that fail validation are replaced with the fallback string
// "<name> invalid header", per spec §3.
func buildResponse(tpl config.ResponseTemplate, registry *template.Registry) (*CompiledResponse, error) {
	if tpl.Status < 100 || tpl.Status > 599 {
		return nil, fmt.Errorf("status %d out of range [100,599]", tpl.Status)
	}

	id := tpl.ID
	if id == "" {
		id = uuid.New().String()
	}

	weight := 1
	if tpl.Weight != nil {
		weight = *tpl.Weight
	}

	headers := make(map[string]string, len(tpl.Headers)+1)
	for name, value := range tpl.Headers {
		canon := textproto.CanonicalMIMEHeaderKey(name)
		if invalidHeaderValue.MatchString(value) {
			headers[canon] = fmt.Sprintf("%s invalid header", name)
			continue
		}
		headers[canon] = value
	}

	switch tpl.Body.Kind {
	case config.BodyJSON:
		headers["Content-Type"] = "application/json"
	}

	body := ""
	switch tpl.Body.Kind {
	case config.BodyRaw, config.BodyJSON:
		body = tpl.Body.Data.Data
	case config.BodyEmpty:
		body = ""
	}

	if err := registry.Register(id, body); err != nil {
		return nil, fmt.Errorf("response %s: %w", id, err)
	}

	return &CompiledResponse{
		ID:         id,
		Weight:     weight,
		Status:     tpl.Status,
		Headers:    headers,
		TemplateID: id,
		Delay:      time.Duration(tpl.DelayMS) * time.Millisecond,
	}, nil
}
