package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	mongolib "go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the geo and lookup indexes. $geoNear refuses to run
// without the 2dsphere index on donations.location.
func EnsureIndexes(ctx context.Context, db *mongolib.Database) error {
	donations := []mongolib.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := db.Collection(donationsCollection).Indexes().CreateMany(ctx, donations); err != nil {
		return err
	}

	users := []mongolib.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "verification_status", Value: 1}}},
	}
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, users)
	return err
}
