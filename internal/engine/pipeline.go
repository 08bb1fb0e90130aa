package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devnull-http/devnull/internal/matcher"
	"github.com/devnull-http/devnull/internal/template"
)

// ErrCancelled is returned by Dispatch when ctx is cancelled while the
// pipeline is suspended at the response delay. No response should be
// emitted for a cancelled request, per spec §5.
var ErrCancelled = errors.New("engine: request cancelled before response was ready")

// Result is a fully materialized HTTP response: status, headers, and a
// rendered body.
type Result struct {
	PayloadID    string
	ResponseID   string
	Status       int
	Headers      map[string]string
	Body         []byte
	RenderFailed bool
}

// Dispatch matches req against e, selects a response from the matched
// Payload's rotation, applies its delay, and renders its body template.
// The returned bool is false when no Payload matched (caller should emit
// 404, per spec §4.6).
//
// A delay of 0 is a no-op and does not suspend, per spec §4.5 step 1. A
// rendering failure is swallowed: the body becomes the literal error
// string and the response is still emitted with its configured status and
// headers, per spec §7's RenderError handling.
func Dispatch(ctx context.Context, e *Engine, registry *template.Registry, req *matcher.Request) (*Result, bool, error) {
	payload, ok := e.Match(req)
	if !ok {
		return nil, false, nil
	}

	resp := payload.Select()

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, true, ErrCancelled
		}
	}

	var requestBody *string
	if req.Body != nil {
		s := string(req.Body)
		requestBody = &s
	}

	body, err := registry.Render(resp.TemplateID, template.Variables{
		PayloadID:   payload.ID,
		RequestBody: requestBody,
	})
	renderFailed := err != nil
	if err != nil {
		body = fmt.Sprintf("encountered an error rendering the response. Error %s", err)
	}

	headers := make(map[string]string, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v
	}

	return &Result{
		PayloadID:    payload.ID,
		ResponseID:   resp.ID,
		Status:       resp.Status,
		Headers:      headers,
		Body:         []byte(body),
		RenderFailed: renderFailed,
	}, true, nil
}
