package service

import (
	"net/http"
	"net/url"

	"github.com/valyala/fasthttp"

	"github.com/devnull-http/devnull/internal/matcher"
)

// BuildRequest adapts a fasthttp.RequestCtx into the matcher.Request shape
// the pipeline evaluates. A zero-length body is collapsed to nil before
// matching, per spec §4.5's empty-body normalization: "Matchers receive
// Some(bytes) only for non-empty bodies."
func BuildRequest(ctx *fasthttp.RequestCtx) *matcher.Request {
	headers := make(http.Header)
	ctx.Request.Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	query := make(url.Values)
	ctx.QueryArgs().VisitAll(func(key, value []byte) {
		query.Add(string(key), string(value))
	})

	var body []byte
	if raw := ctx.Request.Body(); len(raw) > 0 {
		body = raw
	}

	return &matcher.Request{
		Method:  string(ctx.Method()),
		Path:    string(ctx.Path()),
		Query:   query,
		Headers: headers,
		Body:    body,
	}
}

// WriteResult writes a fully decorated engine.Result onto a fasthttp
// response.
func WriteResult(ctx *fasthttp.RequestCtx, status int, headers map[string]string, body []byte) {
	ctx.Response.SetStatusCode(status)
	for k, v := range headers {
		ctx.Response.Header.Set(k, v)
	}
	ctx.Response.SetBody(body)
}
