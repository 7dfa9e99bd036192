package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongolib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

type userRepository struct {
	users     *mongolib.Collection
	donations *mongolib.Collection
	now       func() time.Time
}

// NewUserRepository returns a MongoDB-backed user repository.
func NewUserRepository(db *mongolib.Database) repository.UserRepository {
	return &userRepository{
		users:     db.Collection(usersCollection),
		donations: db.Collection(donationsCollection),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongolib.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u := doc.user()
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = string(filter.Role)
	}
	if filter.Verification != "" {
		query["verification_status"] = string(filter.Verification)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(repository.ClampLimit(filter.Limit))).
		SetSkip(int64(filter.Offset))

	cur, err := r.users.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.User
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.user())
	}
	return out, cur.Err()
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.VerificationStatus == "" {
		user.VerificationStatus = domain.VerificationPending
	}
	now := r.now()
	joined := user.JoinedAt
	if joined.IsZero() {
		joined = now
	}

	set := bson.M{
		"first_name":          user.FirstName,
		"last_name":           user.LastName,
		"email":               user.Email,
		"phone":               user.Phone,
		"gender":              user.Gender,
		"address":             user.Address,
		"city":                user.City,
		"state":               user.State,
		"pincode":             user.Pincode,
		"role":                string(user.Role),
		"verification_status": string(user.VerificationStatus),
		"updated_at":          now,
	}
	if user.Location != nil {
		set["location"] = toGeo(*user.Location)
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"joined_at": joined, "donor_rating": 0.0},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc userDoc
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, update, opts).Decode(&doc); err != nil {
		if mongolib.IsDuplicateKeyError(err) {
			return domain.WrapError(domain.ErrCodeConflict, "user already exists", err)
		}
		return err
	}
	user.JoinedAt = doc.JoinedAt
	user.UpdatedAt = doc.UpdatedAt
	user.DonorRating = doc.DonorRating
	return nil
}

func (r *userRepository) UpdateDetails(ctx context.Context, id string, details repository.UserDetails) (*domain.User, error) {
	set := bson.M{}
	for field, v := range map[string]string{
		"first_name": details.FirstName,
		"last_name":  details.LastName,
		"email":      details.Email,
		"phone":      details.Phone,
		"gender":     details.Gender,
		"address":    details.Address,
		"pincode":    details.Pincode,
	} {
		if v != "" {
			set[field] = v
		}
	}
	return r.updateAndGet(ctx, id, set)
}

func (r *userRepository) SetLocation(ctx context.Context, id, city, state string, location domain.Point) (*domain.User, error) {
	return r.updateAndGet(ctx, id, bson.M{
		"city":     city,
		"state":    state,
		"location": toGeo(location),
	})
}

func (r *userRepository) updateAndGet(ctx context.Context, id string, set bson.M) (*domain.User, error) {
	set["updated_at"] = r.now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongolib.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if mongolib.IsDuplicateKeyError(err) {
			return nil, domain.WrapError(domain.ErrCodeConflict, "user already exists", err)
		}
		return nil, err
	}
	u := doc.user()
	return &u, nil
}

func (r *userRepository) SetVerification(ctx context.Context, id string, status domain.VerificationStatus) error {
	return r.update(ctx, id, bson.M{"verification_status": string(status)})
}

func (r *userRepository) RefreshDonorRating(ctx context.Context, donorID string) (float64, error) {
	pipeline := mongolib.Pipeline{
		{{Key: "$match", Value: bson.M{"donor_id": donorID, "donor_rated": true}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$agent_review.rating"}}}},
	}
	cur, err := r.donations.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var rating float64
	if cur.Next(ctx) {
		var row struct {
			Avg float64 `bson:"avg"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
		rating = row.Avg
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}

	if err := r.update(ctx, donorID, bson.M{"donor_rating": rating}); err != nil {
		return 0, err
	}
	return rating, nil
}

func (r *userRepository) update(ctx context.Context, id string, set bson.M) error {
	set["updated_at"] = r.now()
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
