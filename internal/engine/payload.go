package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/devnull-http/devnull/internal/config"
	"github.com/devnull-http/devnull/internal/matcher"
	"github.com/devnull-http/devnull/internal/rotation"
	"github.com/devnull-http/devnull/internal/template"
)

// Payload is a single (matchers, responses) group: the unit of
// first-match dispatch, per spec's Payload definition.
type Payload struct {
	ID        string
	Matchers  []*matcher.CompiledMatcher
	Responses *rotation.Rotation[*CompiledResponse]
}

// BuildPayload compiles a config.StaticHTTPConfig into a Payload, compiling
// every matcher and building the weighted response rotation. Registers
// every response's body with registry.
func BuildPayload(cfg config.StaticHTTPConfig, registry *template.Registry) (*Payload, error) {
	if len(cfg.Matches) == 0 {
		return nil, fmt.Errorf("payload has no matchers")
	}
	if len(cfg.Responses) == 0 {
		return nil, fmt.Errorf("payload has no responses")
	}

	id := cfg.ID
	if id == "" {
		id = uuid.New().String()
	}

	compiledMatchers := make([]*matcher.CompiledMatcher, 0, len(cfg.Matches))
	for i, rule := range cfg.Matches {
		cm, err := matcher.Compile(rule)
		if err != nil {
			return nil, fmt.Errorf("payload %s: matcher %d: %w", id, i, err)
		}
		compiledMatchers = append(compiledMatchers, cm)
	}

	responses := make([]*CompiledResponse, 0, len(cfg.Responses))
	for _, tpl := range cfg.Responses {
		cr, err := buildResponse(tpl, registry)
		if err != nil {
			return nil, fmt.Errorf("payload %s: %w", id, err)
		}
		responses = append(responses, cr)
	}

	rot, err := rotation.New(responses, nil)
	if errors.Is(err, rotation.ErrEmptyResponseSet) {
		return nil, &config.EmptyResponseSetError{PayloadID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", id, err)
	}

	return &Payload{ID: id, Matchers: compiledMatchers, Responses: rot}, nil
}

// Matches reports whether any of the Payload's MatchRules matches req, per
// spec §4.5: "A Payload matches iff any of its MatchRules matches."
func (p *Payload) Matches(req *matcher.Request) bool {
	for _, m := range p.Matchers {
		if m.Match(req) {
			return true
		}
	}
	return false
}

// Select picks the next CompiledResponse from the Payload's rotation.
func (p *Payload) Select() *CompiledResponse {
	return p.Responses.Next()
}
