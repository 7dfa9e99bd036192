package httpcontext_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/foodlink/pkg/httpcontext"
)

func TestAttachCarriesIdentity(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(httpcontext.HeaderRequestID, "req-42")
	ctx.Request.Header.Set(httpcontext.HeaderUserID, "agent-1")
	ctx.Request.Header.Set(httpcontext.HeaderSessionID, "sid-1")

	stdCtx, cancel := httpcontext.NewAdapter(time.Second).Attach(ctx)
	defer cancel()

	assert.Equal(t, "sid-1", httpcontext.SessionID(stdCtx))
	assert.Equal(t, "req-42", string(ctx.Response.Header.Peek(httpcontext.HeaderRequestID)))

	deadline, ok := stdCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}

func TestAttachReplacesUnsafeRequestIDs(t *testing.T) {
	adapter := httpcontext.NewAdapter(0)

	for _, id := range []string{"", strings.Repeat("a", 65), "bad id", "id-ü"} {
		ctx := &fasthttp.RequestCtx{}
		if id != "" {
			ctx.Request.Header.Set(httpcontext.HeaderRequestID, id)
		}
		stdCtx, cancel := adapter.Attach(ctx)
		got := string(ctx.Response.Header.Peek(httpcontext.HeaderRequestID))
		cancel()

		assert.NotEqual(t, id, got)
		assert.Len(t, got, 36, "uuid for %q", id)
		assert.Empty(t, httpcontext.SessionID(stdCtx))
	}
}
