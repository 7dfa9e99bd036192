package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
	"github.com/fastygo/foodlink/repository/memory"
	"github.com/fastygo/foodlink/usecase/profile"
)

var pune = domain.Point{Longitude: 73.8567, Latitude: 18.5204}

type geocoderFunc func(ctx context.Context, address string) (domain.Point, error)

func (f geocoderFunc) Geocode(ctx context.Context, address string) (domain.Point, error) {
	return f(ctx, address)
}

type revoker struct {
	repository.SessionRepository
	revoked []string
}

func (r *revoker) DeleteByUser(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func setup(t *testing.T) (*profile.UseCase, repository.UserRepository, *revoker) {
	t.Helper()
	users := memory.NewUserRepository(memory.New())
	sessions := &revoker{}
	geocoder := geocoderFunc(func(_ context.Context, address string) (domain.Point, error) {
		if address == "Pune, Maharashtra" {
			return pune, nil
		}
		return domain.Point{}, errors.New("no results")
	})
	return profile.New(users, sessions, geocoder, nil), users, sessions
}

func TestRegister(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()

	u, err := uc.Register(ctx, profile.RegisterInput{
		FirstName: "Ravi", Email: " Ravi@Example.org ", City: "Pune", State: "Maharashtra", Role: domain.RoleAgent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ravi@example.org", u.Email)
	assert.Equal(t, domain.VerificationPending, u.VerificationStatus)
	require.NotNil(t, u.Location)
	assert.Equal(t, pune, *u.Location)

	u, err = uc.Register(ctx, profile.RegisterInput{FirstName: "Asha", City: "Atlantis", State: "Sea", Role: domain.RoleDonor})
	require.NoError(t, err)
	assert.Nil(t, u.Location)

	_, err = uc.Register(ctx, profile.RegisterInput{FirstName: "Eve", Role: domain.RoleAdmin})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestUpdateLocation(t *testing.T) {
	uc, users, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "agent-1", Role: domain.RoleAgent, City: "Old", State: "Town"}))

	_, err := uc.UpdateLocation(ctx, "agent-1", "Atlantis", "Sea")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeGeocode))

	unchanged, err := users.GetByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "Old", unchanged.City)
	assert.Nil(t, unchanged.Location)

	updated, err := uc.UpdateLocation(ctx, "agent-1", " Pune ", "Maharashtra")
	require.NoError(t, err)
	assert.Equal(t, "Pune", updated.City)
	require.NotNil(t, updated.Location)

	actor, err := uc.ResolveActor(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, actor.Location)
	assert.Equal(t, pune, *actor.Location)

	_, err = uc.UpdateLocation(ctx, "agent-1", "", "Maharashtra")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestUpdateProfileKeepsEmptyFields(t *testing.T) {
	uc, users, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "donor-1", FirstName: "Asha", Phone: "123", Role: domain.RoleDonor}))

	u, err := uc.UpdateProfile(ctx, "donor-1", profile.Details{LastName: "Rao"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.FirstName)
	assert.Equal(t, "Rao", u.LastName)
	assert.Equal(t, "123", u.Phone)
	assert.Equal(t, domain.RoleDonor, u.Role)
}

// adminRacer lands an admin verification change just before each partial
// write reaches the store.
type adminRacer struct {
	repository.UserRepository
	status domain.VerificationStatus
}

func (r adminRacer) UpdateDetails(ctx context.Context, id string, details repository.UserDetails) (*domain.User, error) {
	if err := r.SetVerification(ctx, id, r.status); err != nil {
		return nil, err
	}
	return r.UserRepository.UpdateDetails(ctx, id, details)
}

func (r adminRacer) SetLocation(ctx context.Context, id, city, state string, location domain.Point) (*domain.User, error) {
	if err := r.SetVerification(ctx, id, r.status); err != nil {
		return nil, err
	}
	return r.UserRepository.SetLocation(ctx, id, city, state, location)
}

func TestProfileWritesKeepConcurrentVerification(t *testing.T) {
	users := memory.NewUserRepository(memory.New())
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, &domain.User{
		ID: "agent-1", FirstName: "Ravi", Role: domain.RoleAgent, VerificationStatus: domain.VerificationVerified,
	}))

	geocoder := geocoderFunc(func(context.Context, string) (domain.Point, error) { return pune, nil })
	uc := profile.New(adminRacer{UserRepository: users, status: domain.VerificationRejected}, nil, geocoder, nil)

	u, err := uc.UpdateProfile(ctx, "agent-1", profile.Details{Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "555", u.Phone)
	assert.Equal(t, domain.VerificationRejected, u.VerificationStatus)

	require.NoError(t, users.SetVerification(ctx, "agent-1", domain.VerificationVerified))
	u, err = uc.UpdateLocation(ctx, "agent-1", "Pune", "Maharashtra")
	require.NoError(t, err)
	require.NotNil(t, u.Location)
	assert.Equal(t, domain.VerificationRejected, u.VerificationStatus)

	stored, err := users.GetByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationRejected, stored.VerificationStatus)
	assert.Equal(t, domain.RoleAgent, stored.Role)
	assert.Equal(t, "Ravi", stored.FirstName)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	uc, _, _ := setup(t)
	_, err := uc.UpdateProfile(context.Background(), "ghost", profile.Details{Phone: "1"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestResolveActorUnknownUser(t *testing.T) {
	uc, _, _ := setup(t)
	_, err := uc.ResolveActor(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAdminOperations(t *testing.T) {
	uc, users, sessions := setup(t)
	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "agent-1", Role: domain.RoleAgent}))
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "donor-1", Role: domain.RoleDonor}))

	admin := domain.Actor{UserID: "root", Role: domain.RoleAdmin}
	agent := domain.Actor{UserID: "agent-1", Role: domain.RoleAgent}

	_, err := uc.SetVerification(ctx, agent, "agent-1", domain.VerificationVerified)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = uc.SetVerification(ctx, admin, "agent-1", domain.VerificationStatus("maybe"))
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	u, err := uc.SetVerification(ctx, admin, "agent-1", domain.VerificationVerified)
	require.NoError(t, err)
	assert.True(t, u.IsVerified())
	assert.Equal(t, []string{"agent-1"}, sessions.revoked)

	_, err = uc.SetVerification(ctx, admin, "ghost", domain.VerificationVerified)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	agents, err := uc.ListUsers(ctx, admin, repository.UserFilter{Role: domain.RoleAgent, Verification: domain.VerificationVerified})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "agent-1", agents[0].ID)

	_, err = uc.ListUsers(ctx, agent, repository.UserFilter{})
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestEnsureAdmin(t *testing.T) {
	uc, users, _ := setup(t)
	ctx := context.Background()

	admin, err := uc.EnsureAdmin(ctx, "root", "Ops@Example.org")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.IsVerified())
	assert.Equal(t, "ops@example.org", admin.Email)

	again, err := uc.EnsureAdmin(ctx, "root", "")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.org", again.Email)

	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "donor-9", Role: domain.RoleDonor}))
	_, err = uc.EnsureAdmin(ctx, "donor-9", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}
