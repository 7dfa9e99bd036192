package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fastygo/foodlink/domain"
)

// ErrConditionFailed is returned when a guarded write matched no record,
// either because the record is gone or because its guard no longer holds.
var ErrConditionFailed = errors.New("donation guard not satisfied")

type DonationFilter struct {
	DonorID  string
	AgentID  string
	Statuses []domain.DonationStatus
	Limit    int
	Offset   int
}

// Guard is evaluated by the store in the same operation as the write.
type Guard struct {
	Statuses []domain.DonationStatus
	DonorID  string
	AgentID  string
	// PartyID matches when it equals either the donor or the agent.
	PartyID string
	// FeedbackOpen requires feedback_given to still be false.
	FeedbackOpen bool
	// RatingOpen requires donor_rated to still be false.
	RatingOpen bool
}

// Change lists the fields a transition writes. Zero values mean unchanged.
type Change struct {
	Status            domain.DonationStatus
	AgentID           string
	ClearAgent        bool
	CollectionTime    *time.Time
	Feedback          *domain.Feedback
	FeedbackDismissed bool
	AgentReview       *domain.Feedback
}

type NearbyQuery struct {
	Origin       domain.Point
	RadiusMeters float64
	AgentID      string
	Limit        int
}

type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error
	GetByID(ctx context.Context, id string) (*domain.Donation, error)
	List(ctx context.Context, filter DonationFilter) ([]domain.Donation, error)
	CountByStatus(ctx context.Context, filter DonationFilter) (domain.StatusCounts, error)
	// Transition applies change only if guard holds and returns the updated record.
	Transition(ctx context.Context, id string, guard Guard, change Change) (*domain.Donation, error)
	DeleteIf(ctx context.Context, id string, guard Guard) error
	// FindNearby returns donations within the radius that are pending or
	// engaged by AgentID, nearest first, with the donor projection joined.
	FindNearby(ctx context.Context, query NearbyQuery) ([]domain.NearbyDonation, error)
}

// Matches evaluates the guard in process. SQL and document stores express
// the same predicate in their own query language.
func (g Guard) Matches(d *domain.Donation) bool {
	if d == nil {
		return false
	}
	if len(g.Statuses) > 0 {
		ok := false
		for _, s := range g.Statuses {
			if d.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if g.DonorID != "" && d.DonorID != g.DonorID {
		return false
	}
	if g.AgentID != "" && d.Agent() != g.AgentID {
		return false
	}
	if g.PartyID != "" && d.DonorID != g.PartyID && d.Agent() != g.PartyID {
		return false
	}
	if g.FeedbackOpen && d.FeedbackGiven {
		return false
	}
	if g.RatingOpen && d.DonorRated {
		return false
	}
	return true
}

// Apply writes the change onto d and stamps UpdatedAt.
func (c Change) Apply(d *domain.Donation, now time.Time) {
	if c.Status != "" {
		d.Status = c.Status
	}
	if c.ClearAgent {
		d.AgentID = nil
	} else if c.AgentID != "" {
		agent := c.AgentID
		d.AgentID = &agent
	}
	if c.CollectionTime != nil {
		ct := *c.CollectionTime
		d.CollectionTime = &ct
	}
	if c.Feedback != nil {
		fb := *c.Feedback
		d.Feedback = &fb
		d.FeedbackGiven = true
	}
	if c.FeedbackDismissed {
		d.FeedbackDismissed = true
	}
	if c.AgentReview != nil {
		r := *c.AgentReview
		d.AgentReview = &r
		d.DonorRated = true
	}
	d.UpdatedAt = now
}

// StatusStrings converts statuses for drivers that bind plain strings.
func StatusStrings(statuses []domain.DonationStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// ClampLimit bounds page sizes for list queries.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
