package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository/redis"
)

func TestSessionRevocation(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redislib.NewClient(&redislib.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.FlushDB(ctx).Err())
	repo := redis.NewSessionRepository(client, time.Minute)

	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, repo.Save(ctx, &domain.Session{ID: id, UserID: "agent-1", Role: domain.RoleAgent}))
	}
	require.NoError(t, repo.Save(ctx, &domain.Session{ID: "s3", UserID: "donor-1", Role: domain.RoleDonor}))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "agent-1", got.UserID)

	require.NoError(t, repo.DeleteByUser(ctx, "agent-1"))
	_, err = repo.Get(ctx, "s2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = repo.Get(ctx, "s3")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "s3"))
	assert.ErrorIs(t, repo.Extend(ctx, "s3", 60), domain.ErrSessionNotFound)
}
