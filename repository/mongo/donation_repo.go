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

type donationRepository struct {
	coll *mongolib.Collection
	now  func() time.Time
}

// NewDonationRepository returns a MongoDB-backed implementation of DonationRepository.
func NewDonationRepository(db *mongolib.Database) repository.DonationRepository {
	return &donationRepository{
		coll: db.Collection(donationsCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *donationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	if donation == nil {
		return domain.ErrInvalidPayload
	}
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	now := r.now()
	donation.CreatedAt = now
	donation.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, fromDonation(donation)); err != nil {
		if mongolib.IsDuplicateKeyError(err) {
			return domain.WrapError(domain.ErrCodeConflict, "donation already exists", err)
		}
		return err
	}
	return nil
}

func (r *donationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	var doc donationDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongolib.ErrNoDocuments) {
			return nil, domain.ErrDonationNotFound
		}
		return nil, err
	}
	d := doc.donation()
	return &d, nil
}

func (r *donationRepository) List(ctx context.Context, filter repository.DonationFilter) ([]domain.Donation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(repository.ClampLimit(filter.Limit))).
		SetSkip(int64(filter.Offset))

	cur, err := r.coll.Find(ctx, listFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Donation
	for cur.Next(ctx) {
		var doc donationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.donation())
	}
	return out, cur.Err()
}

func (r *donationRepository) CountByStatus(ctx context.Context, filter repository.DonationFilter) (domain.StatusCounts, error) {
	pipeline := mongolib.Pipeline{
		{{Key: "$match", Value: listFilter(filter)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := domain.StatusCounts{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int    `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[domain.DonationStatus(row.Status)] = row.N
	}
	return counts, cur.Err()
}

// Transition uses findOneAndUpdate with the guard in the filter; the server
// applies it atomically against the single document.
func (r *donationRepository) Transition(ctx context.Context, id string, guard repository.Guard, change repository.Change) (*domain.Donation, error) {
	set := bson.M{"updated_at": r.now()}
	if change.Status != "" {
		set["status"] = string(change.Status)
	}
	if change.ClearAgent {
		set["agent_id"] = nil
	} else if change.AgentID != "" {
		set["agent_id"] = change.AgentID
	}
	if change.CollectionTime != nil {
		set["collection_time"] = change.CollectionTime.UTC()
	}
	if change.Feedback != nil {
		set["feedback"] = feedbackDoc{Rating: change.Feedback.Rating, Comments: change.Feedback.Comments}
		set["feedback_given"] = true
	}
	if change.FeedbackDismissed {
		set["feedback_dismissed"] = true
	}
	if change.AgentReview != nil {
		set["agent_review"] = feedbackDoc{Rating: change.AgentReview.Rating, Comments: change.AgentReview.Comments}
		set["donor_rated"] = true
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc donationDoc
	err := r.coll.FindOneAndUpdate(ctx, guardFilter(id, guard), bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongolib.ErrNoDocuments) {
			return nil, repository.ErrConditionFailed
		}
		return nil, err
	}
	d := doc.donation()
	return &d, nil
}

func (r *donationRepository) DeleteIf(ctx context.Context, id string, guard repository.Guard) error {
	res, err := r.coll.DeleteOne(ctx, guardFilter(id, guard))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrConditionFailed
	}
	return nil
}

func (r *donationRepository) FindNearby(ctx context.Context, q repository.NearbyQuery) ([]domain.NearbyDonation, error) {
	visible := bson.M{"$or": bson.A{
		bson.M{"status": string(domain.StatusPending)},
		bson.M{
			"status":   bson.M{"$in": bson.A{string(domain.StatusRequested), string(domain.StatusRejected)}},
			"agent_id": q.AgentID,
		},
	}}

	pipeline := mongolib.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":          toGeo(q.Origin),
			"distanceField": "distance",
			"maxDistance":   q.RadiusMeters,
			"spherical":     true,
			"query":         visible,
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "donor_id",
			"foreignField": "_id",
			"as":           "donor",
		}}},
		{{Key: "$unwind", Value: "$donor"}},
		{{Key: "$sort", Value: bson.D{
			{Key: "distance", Value: 1},
			{Key: "donor.donor_rating", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}
	if q.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.NearbyDonation
	for cur.Next(ctx) {
		var doc nearbyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		donor := doc.Donor.user()
		out = append(out, domain.NearbyDonation{
			Donation:       doc.Donation.donation(),
			Donor:          donor.Details(),
			DistanceMeters: doc.Distance,
		})
	}
	return out, cur.Err()
}

func listFilter(f repository.DonationFilter) bson.M {
	return guardFilter("", repository.Guard{Statuses: f.Statuses, DonorID: f.DonorID, AgentID: f.AgentID})
}

func guardFilter(id string, g repository.Guard) bson.M {
	filter := bson.M{}
	if id != "" {
		filter["_id"] = id
	}
	if len(g.Statuses) > 0 {
		filter["status"] = bson.M{"$in": repository.StatusStrings(g.Statuses)}
	}
	if g.DonorID != "" {
		filter["donor_id"] = g.DonorID
	}
	if g.AgentID != "" {
		filter["agent_id"] = g.AgentID
	}
	if g.PartyID != "" {
		filter["$or"] = bson.A{bson.M{"donor_id": g.PartyID}, bson.M{"agent_id": g.PartyID}}
	}
	if g.FeedbackOpen {
		filter["feedback_given"] = bson.M{"$ne": true}
	}
	if g.RatingOpen {
		filter["donor_rated"] = bson.M{"$ne": true}
	}
	return filter
}
