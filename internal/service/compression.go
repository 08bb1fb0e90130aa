package service

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fasthttp"
)

// compressionMinSize mirrors the teacher's cache-layer compression
// threshold: small bodies aren't worth the CPU or the gzip framing
// overhead.
const compressionMinSize = 256

// WrapCompression applies standard Accept-Encoding content negotiation
// around handler, per spec §4.6. Only gzip is offered; bodies below
// compressionMinSize, or responses that already set Content-Encoding, are
// left untouched.
func WrapCompression(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		handler(ctx)

		if len(ctx.Response.Header.Peek("Content-Encoding")) > 0 {
			return
		}

		body := ctx.Response.Body()
		if len(body) < compressionMinSize {
			return
		}

		if !acceptsGzip(string(ctx.Request.Header.Peek("Accept-Encoding"))) {
			return
		}

		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(body); err != nil {
			w.Close()
			return
		}
		if err := w.Close(); err != nil {
			return
		}

		ctx.Response.SetBody(buf.Bytes())
		ctx.Response.Header.Set("Content-Encoding", "gzip")
		ctx.Response.Header.Add("Vary", "Accept-Encoding")
	}
}

func acceptsGzip(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		name := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(name, "gzip") {
			return true
		}
	}
	return false
}
