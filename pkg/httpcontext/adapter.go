// Package httpcontext turns a fasthttp request into the context.Context the
// use cases run under.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/foodlink/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID and HeaderSessionID are written by the auth middleware
	// after the bearer token and its session were checked.
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"

	maxRequestIDLen = 64
)

type key int

const (
	keyRemoteAddr key = iota
	keySessionID
)

// Adapter bounds every request with a timeout and carries the caller's
// identity and request id into the context.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach returns a detached context bounded by the adapter timeout. The
// RequestCtx itself is not used as parent; it is recycled after the handler
// returns.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := requestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(HeaderRequestID, reqID)

	if addr := ctx.RemoteAddr(); addr != nil {
		stdCtx = context.WithValue(stdCtx, keyRemoteAddr, addr.String())
	}
	if userID := string(ctx.Request.Header.Peek(HeaderUserID)); userID != "" {
		stdCtx = appLogger.ContextWithUserID(stdCtx, userID)
	}
	if sessionID := string(ctx.Request.Header.Peek(HeaderSessionID)); sessionID != "" {
		stdCtx = context.WithValue(stdCtx, keySessionID, sessionID)
	}
	return stdCtx, cancel
}

// SessionID returns the authenticated session of the request, if any.
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(keySessionID).(string)
	return v
}

func RemoteAddr(ctx context.Context) string {
	v, _ := ctx.Value(keyRemoteAddr).(string)
	return v
}

// requestID keeps a caller supplied id only when it is short printable
// ASCII; it ends up in logs and response headers.
func requestID(ctx *fasthttp.RequestCtx) string {
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return uuid.NewString()
		}
	}
	return id
}
