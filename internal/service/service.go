// Package service is the Service Layer (spec §4.6): it walks the
// configured backends in order, applies the always-on response decoration,
// and produces the final (status, headers, body) for a request.
package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/devnull-http/devnull/internal/engine"
	"github.com/devnull-http/devnull/internal/matcher"
	"github.com/devnull-http/devnull/internal/metrics"
	"github.com/devnull-http/devnull/internal/requestid"
	"github.com/devnull-http/devnull/internal/template"
)

// nullValue is the sentinel the decoration headers carry when the Service
// Layer served its default 404 rather than a matched response, and the
// default for the plugin/payload/response id headers, per spec §4.6.
const nullValue = "null"

// Service holds the live compiled Engine and Template Registry for one
// backend. Only the static-http backend is implemented (spec §3); the
// Service Layer's "ordered list of Engines" therefore has exactly one
// member in this implementation, but Handle is written so a second backend
// could be added as another step in the walk without changing callers.
type Service struct {
	engine   *engine.Engine
	registry *template.Registry
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New wraps a compiled Engine and its Template Registry into a Service. m
// may be nil in tests that don't care about metric observation.
func New(e *engine.Engine, registry *template.Registry, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{engine: e, registry: registry, logger: logger, metrics: m}
}

// Handle runs the full request pipeline (C6) against req and returns a
// fully decorated Result. A backend error is logged and treated as "no
// match"; if nothing matches, the default 404 is returned. Handle never
// returns nil.
func (s *Service) Handle(ctx context.Context, req *matcher.Request, requestHeaders http.Header) *engine.Result {
	result, matched, err := engine.Dispatch(ctx, s.engine, s.registry, req)
	if err != nil {
		if err == engine.ErrCancelled {
			return nil
		}
		s.logger.Error("backend dispatch failed", zap.Error(err))
		matched = false
	}

	if !matched {
		result = &engine.Result{
			PayloadID:  nullValue,
			ResponseID: nullValue,
			Status:     http.StatusNotFound,
			Headers:    map[string]string{},
			Body:       nil,
		}
	}

	if result.RenderFailed && s.metrics != nil {
		s.metrics.ObserveRenderError()
	}

	decorate(result, requestHeaders)
	return result
}

// decorate applies the always-on response headers from spec §4.6 and §6:
// x-dev-null is unconditionally set to "true"; the plugin/payload/response
// id headers default to "null" when not already present; x-request-id is
// always set, minted from the caller's header value (sanitized and
// disambiguated) when present, or freshly generated when absent.
func decorate(result *engine.Result, requestHeaders http.Header) {
	if result.Headers == nil {
		result.Headers = map[string]string{}
	}

	result.Headers["X-Dev-Null"] = "true"
	setIfAbsent(result.Headers, "X-Dev-Null-Plugin-Id", nullValue)
	setIfAbsent(result.Headers, "X-Dev-Null-Payload-Id", orNull(result.PayloadID))
	setIfAbsent(result.Headers, "X-Dev-Null-Response-Id", orNull(result.ResponseID))

	setIfAbsent(result.Headers, "X-Request-Id", requestid.Generate(requestHeaders.Get("X-Request-Id")))
}

func orNull(v string) string {
	if v == "" {
		return nullValue
	}
	return v
}

func setIfAbsent(headers map[string]string, key, value string) {
	if _, ok := headers[key]; !ok {
		headers[key] = value
	}
}

// SensitiveHeaders lists header names redacted before logging a request,
// per spec §4.6 ("Mark Authorization as sensitive for logging redaction").
var SensitiveHeaders = map[string]struct{}{
	"Authorization": {},
}

// RedactForLogging returns a copy of headers with sensitive values replaced
// by a fixed marker, safe to pass to a structured logger.
func RedactForLogging(headers http.Header) http.Header {
	redacted := make(http.Header, len(headers))
	for k, v := range headers {
		if _, sensitive := SensitiveHeaders[http.CanonicalHeaderKey(k)]; sensitive {
			redacted[k] = []string{"[REDACTED]"}
			continue
		}
		redacted[k] = v
	}
	return redacted
}
