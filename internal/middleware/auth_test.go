package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/internal/middleware"
)

type checker map[string]string

func (c checker) GetSession(_ context.Context, id string) (*domain.Session, error) {
	userID, ok := c[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.Session{ID: id, UserID: userID}, nil
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func run(header string, sessions middleware.SessionChecker) (*fasthttp.RequestCtx, string) {
	var seen string
	handler := middleware.JWTAuth("secret", sessions, nil)(func(ctx *fasthttp.RequestCtx) {
		seen = string(ctx.Request.Header.Peek(middleware.HeaderUserID))
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	ctx := &fasthttp.RequestCtx{}
	if header != "" {
		ctx.Request.Header.Set("Authorization", header)
	}
	ctx.Request.Header.Set(middleware.HeaderUserID, "spoofed")
	handler(ctx)
	return ctx, seen
}

func TestJWTAuth(t *testing.T) {
	sessions := checker{"sid-1": "agent-1"}
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("valid token and session", func(t *testing.T) {
		token := sign(t, "secret", jwt.MapClaims{"user_id": "agent-1", "sid": "sid-1", "exp": exp})
		ctx, seen := run("Bearer "+token, sessions)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "agent-1", seen)
	})

	t.Run("missing token", func(t *testing.T) {
		ctx, seen := run("", sessions)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
		assert.Empty(t, seen)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, "other", jwt.MapClaims{"user_id": "agent-1", "sid": "sid-1", "exp": exp})
		ctx, _ := run("Bearer "+token, sessions)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("revoked session", func(t *testing.T) {
		token := sign(t, "secret", jwt.MapClaims{"user_id": "agent-1", "sid": "gone", "exp": exp})
		ctx, _ := run("Bearer "+token, sessions)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("session of another user", func(t *testing.T) {
		token := sign(t, "secret", jwt.MapClaims{"user_id": "agent-2", "sid": "sid-1", "exp": exp})
		ctx, _ := run("Bearer "+token, sessions)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("expired", func(t *testing.T) {
		token := sign(t, "secret", jwt.MapClaims{"user_id": "agent-1", "sid": "sid-1", "exp": time.Now().Add(-time.Minute).Unix()})
		ctx, _ := run("Bearer "+token, sessions)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})
}
