package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func newCtxWithAcceptEncoding(acceptEncoding string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Accept-Encoding", acceptEncoding)
	return ctx
}

func TestWrapCompression_CompressesLargeBodyWhenGzipAccepted(t *testing.T) {
	large := strings.Repeat("x", compressionMinSize+1)
	handler := WrapCompression(func(ctx *fasthttp.RequestCtx) {
		ctx.Response.SetBody([]byte(large))
	})

	ctx := newCtxWithAcceptEncoding("gzip, deflate")
	handler(ctx)

	assert.Equal(t, "gzip", string(ctx.Response.Header.Peek("Content-Encoding")))

	reader, err := gzip.NewReader(bytes.NewReader(ctx.Response.Body()))
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(reader)
	require.NoError(t, err)
	assert.Equal(t, large, buf.String())
}

func TestWrapCompression_LeavesSmallBodyUncompressed(t *testing.T) {
	handler := WrapCompression(func(ctx *fasthttp.RequestCtx) {
		ctx.Response.SetBody([]byte("short"))
	})

	ctx := newCtxWithAcceptEncoding("gzip")
	handler(ctx)

	assert.Empty(t, ctx.Response.Header.Peek("Content-Encoding"))
	assert.Equal(t, "short", string(ctx.Response.Body()))
}

func TestWrapCompression_SkipsWhenClientDoesNotAcceptGzip(t *testing.T) {
	large := strings.Repeat("x", compressionMinSize+1)
	handler := WrapCompression(func(ctx *fasthttp.RequestCtx) {
		ctx.Response.SetBody([]byte(large))
	})

	ctx := newCtxWithAcceptEncoding("br")
	handler(ctx)

	assert.Empty(t, ctx.Response.Header.Peek("Content-Encoding"))
}

func TestWrapCompression_RespectsExistingContentEncoding(t *testing.T) {
	large := strings.Repeat("x", compressionMinSize+1)
	handler := WrapCompression(func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("Content-Encoding", "identity")
		ctx.Response.SetBody([]byte(large))
	})

	ctx := newCtxWithAcceptEncoding("gzip")
	handler(ctx)

	assert.Equal(t, "identity", string(ctx.Response.Header.Peek("Content-Encoding")))
}
