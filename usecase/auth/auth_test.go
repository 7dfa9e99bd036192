package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository/memory"
	"github.com/fastygo/foodlink/usecase/auth"
)

type fakeSessions struct {
	mu   sync.Mutex
	data map[string]domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: map[string]domain.Session{}}
}

func (f *fakeSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (f *fakeSessions) Save(_ context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[s.ID] = *s
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, id)
	return nil
}

func (f *fakeSessions) Extend(_ context.Context, id string, ttlSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.ExpiresAt = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	f.data[id] = s
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.data {
		if s.UserID == userID {
			delete(f.data, id)
		}
	}
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	users := memory.NewUserRepository(memory.New())
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "agent-1", Role: domain.RoleAgent}))

	sessions := newFakeSessions()
	uc := auth.New(users, sessions, auth.TokenConfig{Secret: "s3cret", Issuer: "foodlink"}, nil)

	session, err := uc.CreateSession(ctx, "agent-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, session.Role)
	require.NotEmpty(t, session.Token)

	token, err := jwt.Parse(session.Token, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "agent-1", claims["user_id"])
	assert.Equal(t, session.ID, claims["sid"])
	assert.Equal(t, "foodlink", claims["iss"])

	got, err := uc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", got.UserID)

	refreshed, err := uc.RefreshSession(ctx, session.ID, time.Hour)
	require.NoError(t, err)
	assert.True(t, refreshed.ExpiresAt.After(session.ExpiresAt))

	require.NoError(t, uc.RevokeSession(ctx, session.ID))
	_, err = uc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestCreateSessionUnknownUser(t *testing.T) {
	uc := auth.New(memory.NewUserRepository(memory.New()), newFakeSessions(), auth.TokenConfig{Secret: "x"}, nil)
	_, err := uc.CreateSession(context.Background(), "ghost", time.Minute)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestExpiredSessionIsDropped(t *testing.T) {
	users := memory.NewUserRepository(memory.New())
	sessions := newFakeSessions()
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &domain.Session{ID: "old", UserID: "u", ExpiresAt: time.Now().Add(-time.Minute)}))

	uc := auth.New(users, sessions, auth.TokenConfig{Secret: "x"}, nil)
	_, err := uc.GetSession(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = sessions.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
