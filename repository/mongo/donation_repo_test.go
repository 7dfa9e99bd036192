package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mongolib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
	"github.com/fastygo/foodlink/repository/mongo"
)

func setupDB(t *testing.T) *mongolib.Database {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongolib.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("foodlink_test")
	require.NoError(t, db.Drop(ctx))
	require.NoError(t, mongo.EnsureIndexes(ctx, db))
	return db
}

func TestMongoNearbyAndGuards(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := mongo.NewUserRepository(db)
	donations := mongo.NewDonationRepository(db)

	low := &domain.User{FirstName: "Low", Role: domain.RoleDonor}
	high := &domain.User{FirstName: "High", Role: domain.RoleDonor}
	require.NoError(t, users.Upsert(ctx, low))
	require.NoError(t, users.Upsert(ctx, high))

	spot := domain.Point{Longitude: 72.8777, Latitude: 19.0760}
	a := &domain.Donation{DonorID: low.ID, Location: spot, Status: domain.StatusPending}
	b := &domain.Donation{DonorID: high.ID, Location: spot, Status: domain.StatusPending}
	require.NoError(t, donations.Create(ctx, a))
	require.NoError(t, donations.Create(ctx, b))

	// b's donor gets the better rating so it wins the distance tie
	_, err := donations.Transition(ctx, b.ID, repository.Guard{}, repository.Change{AgentReview: &domain.Feedback{Rating: 5}})
	require.NoError(t, err)
	_, err = users.RefreshDonorRating(ctx, high.ID)
	require.NoError(t, err)

	pune := domain.Point{Longitude: 73.8567, Latitude: 18.5204}
	res, err := donations.FindNearby(ctx, repository.NearbyQuery{Origin: pune, RadiusMeters: 500_000, AgentID: "agent-1"})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, b.ID, res[0].ID)
	assert.Equal(t, 5.0, res[0].Donor.Rating)
	assert.InDelta(t, 120_000, res[0].DistanceMeters, 5_000)

	_, err = donations.Transition(ctx, a.ID,
		repository.Guard{Statuses: []domain.DonationStatus{domain.StatusPending}},
		repository.Change{Status: domain.StatusRequested, AgentID: "agent-1"})
	require.NoError(t, err)
	_, err = donations.Transition(ctx, a.ID,
		repository.Guard{Statuses: []domain.DonationStatus{domain.StatusPending}},
		repository.Change{Status: domain.StatusRequested, AgentID: "agent-2"})
	assert.ErrorIs(t, err, repository.ErrConditionFailed)

	res, err = donations.FindNearby(ctx, repository.NearbyQuery{Origin: pune, RadiusMeters: 500_000, AgentID: "agent-2"})
	require.NoError(t, err)
	assert.Len(t, res, 1)

	require.NoError(t, donations.DeleteIf(ctx, a.ID, repository.Guard{PartyID: "agent-1"}))
	_, err = donations.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrDonationNotFound)
}
