package matching_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
	"github.com/fastygo/foodlink/repository/memory"
	"github.com/fastygo/foodlink/usecase/matching"
)

var (
	mumbai    = domain.Point{Longitude: 72.8777, Latitude: 19.0760}
	pune      = domain.Point{Longitude: 73.8567, Latitude: 18.5204}
	hyderabad = domain.Point{Longitude: 78.4867, Latitude: 17.3850}
)

type env struct {
	donations repository.DonationRepository
	users     repository.UserRepository
	uc        *matching.UseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	e := &env{
		donations: memory.NewDonationRepository(store),
		users:     memory.NewUserRepository(store),
	}
	e.uc = matching.New(e.donations, matching.Config{}, nil)
	return e
}

func (e *env) user(t *testing.T, id string, role domain.Role, rating float64, loc *domain.Point) domain.Actor {
	t.Helper()
	u := &domain.User{
		ID:                 id,
		FirstName:          id,
		Role:               role,
		VerificationStatus: domain.VerificationVerified,
		Location:           loc,
		DonorRating:        rating,
	}
	require.NoError(t, e.users.Upsert(context.Background(), u))
	return u.Actor()
}

func (e *env) donation(t *testing.T, donorID string, at domain.Point) *domain.Donation {
	t.Helper()
	d := &domain.Donation{DonorID: donorID, FoodType: "bread", Location: at, Status: domain.StatusPending}
	require.NoError(t, e.donations.Create(context.Background(), d))
	return d
}

func TestNearbyWithinRadius(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "donor-1", domain.RoleDonor, 0, &mumbai)
	agent := e.user(t, "agent-1", domain.RoleAgent, 0, &pune)
	d := e.donation(t, "donor-1", mumbai)

	res, err := e.uc.Nearby(ctx, agent, matching.Query{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, d.ID, res[0].ID)
	assert.InDelta(t, 120_000, res[0].DistanceMeters, 5_000)
	assert.Equal(t, "donor-1", res[0].Donor.FirstName)

	res, err = e.uc.Nearby(ctx, agent, matching.Query{RadiusMeters: 100_000})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestNearbyExcludesDistantAgent(t *testing.T) {
	e := newEnv(t)
	e.user(t, "donor-1", domain.RoleDonor, 0, &mumbai)
	far := e.user(t, "agent-far", domain.RoleAgent, 0, &hyderabad)
	e.donation(t, "donor-1", mumbai)

	res, err := e.uc.Nearby(context.Background(), far, matching.Query{})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestNearbyOrdering(t *testing.T) {
	e := newEnv(t)
	e.user(t, "low", domain.RoleDonor, 2, &mumbai)
	e.user(t, "high", domain.RoleDonor, 5, &mumbai)
	agent := e.user(t, "agent-1", domain.RoleAgent, 0, &pune)

	closer := e.donation(t, "low", domain.Point{Longitude: 73.5, Latitude: 18.7})
	tieLow := e.donation(t, "low", mumbai)
	tieHigh := e.donation(t, "high", mumbai)

	res, err := e.uc.Nearby(context.Background(), agent, matching.Query{})
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, closer.ID, res[0].ID)
	assert.Equal(t, tieHigh.ID, res[1].ID)
	assert.Equal(t, tieLow.ID, res[2].ID)

	res, err = e.uc.Nearby(context.Background(), agent, matching.Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, closer.ID, res[0].ID)
}

func TestNearbyVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.user(t, "donor-1", domain.RoleDonor, 0, &mumbai)
	me := e.user(t, "agent-1", domain.RoleAgent, 0, &pune)
	other := e.user(t, "agent-2", domain.RoleAgent, 0, &pune)

	mine := e.donation(t, "donor-1", mumbai)
	_, err := e.donations.Transition(ctx, mine.ID, repository.Guard{}, repository.Change{Status: domain.StatusRequested, AgentID: me.UserID})
	require.NoError(t, err)

	legacy := e.donation(t, "donor-1", mumbai)
	_, err = e.donations.Transition(ctx, legacy.ID, repository.Guard{}, repository.Change{Status: domain.StatusRejected, AgentID: me.UserID})
	require.NoError(t, err)

	taken := e.donation(t, "donor-1", mumbai)
	_, err = e.donations.Transition(ctx, taken.ID, repository.Guard{}, repository.Change{Status: domain.StatusAssigned, AgentID: me.UserID})
	require.NoError(t, err)

	open := e.donation(t, "donor-1", mumbai)

	res, err := e.uc.Nearby(ctx, me, matching.Query{})
	require.NoError(t, err)
	ids := make([]string, 0, len(res))
	for _, item := range res {
		ids = append(ids, item.ID)
	}
	assert.ElementsMatch(t, []string{mine.ID, legacy.ID, open.ID}, ids)

	res, err = e.uc.Nearby(ctx, other, matching.Query{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, open.ID, res[0].ID)
}

func TestNearbyRequiresVerifiedAgentWithLocation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	homeless := e.user(t, "agent-1", domain.RoleAgent, 0, nil)
	_, err := e.uc.Nearby(ctx, homeless, matching.Query{})
	assert.ErrorIs(t, err, domain.ErrLocationRequired)

	pending := domain.Actor{UserID: "agent-2", Role: domain.RoleAgent, Verification: domain.VerificationPending, Location: &pune}
	_, err = e.uc.Nearby(ctx, pending, matching.Query{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	donor := e.user(t, "donor-1", domain.RoleDonor, 0, &mumbai)
	_, err = e.uc.Nearby(ctx, donor, matching.Query{})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestRadiusIsCapped(t *testing.T) {
	store := memory.New()
	donations := memory.NewDonationRepository(store)
	users := memory.NewUserRepository(store)
	uc := matching.New(donations, matching.Config{RadiusMeters: 50_000, MaxRadiusMeters: 200_000}, nil)

	ctx := context.Background()
	require.NoError(t, users.Upsert(ctx, &domain.User{ID: "donor-1", Role: domain.RoleDonor}))
	require.NoError(t, donations.Create(ctx, &domain.Donation{DonorID: "donor-1", Location: mumbai, Status: domain.StatusPending}))
	agent := domain.Actor{UserID: "agent-1", Role: domain.RoleAgent, Verification: domain.VerificationVerified, Location: &hyderabad}

	res, err := uc.Nearby(ctx, agent, matching.Query{RadiusMeters: 10_000_000})
	require.NoError(t, err)
	assert.Empty(t, res)

	agent.Location = &pune
	res, err = uc.Nearby(ctx, agent, matching.Query{})
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = uc.Nearby(ctx, agent, matching.Query{RadiusMeters: 150_000})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}
