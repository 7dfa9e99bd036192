package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

const (
	DefaultRadiusMeters    = 500_000.0
	DefaultMaxRadiusMeters = 2_000_000.0
	DefaultLimit           = 50
)

type Config struct {
	RadiusMeters    float64
	MaxRadiusMeters float64
	Limit           int
}

func (c Config) withDefaults() Config {
	if c.RadiusMeters <= 0 {
		c.RadiusMeters = DefaultRadiusMeters
	}
	if c.MaxRadiusMeters <= 0 {
		c.MaxRadiusMeters = DefaultMaxRadiusMeters
	}
	if c.RadiusMeters > c.MaxRadiusMeters {
		c.RadiusMeters = c.MaxRadiusMeters
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	return c
}

// Query narrows a single match call. Zero values take the configured defaults.
type Query struct {
	RadiusMeters float64
	Limit        int
}

// UseCase finds donations around an agent's registered location.
type UseCase struct {
	donations repository.DonationRepository
	cfg       Config
	logger    *zap.Logger
}

func New(donations repository.DonationRepository, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		donations: donations,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Nearby returns pending donations plus the ones the agent is engaged with,
// nearest first. Equal distances favour the better rated donor.
func (uc *UseCase) Nearby(ctx context.Context, actor domain.Actor, q Query) ([]domain.NearbyDonation, error) {
	if err := actor.RequireVerifiedAgent(); err != nil {
		return nil, err
	}
	if actor.Location == nil {
		return nil, domain.ErrLocationRequired
	}
	if err := actor.Location.Validate(); err != nil {
		return nil, domain.ErrLocationRequired
	}

	radius := q.RadiusMeters
	if radius <= 0 {
		radius = uc.cfg.RadiusMeters
	}
	if radius > uc.cfg.MaxRadiusMeters {
		radius = uc.cfg.MaxRadiusMeters
	}
	limit := q.Limit
	if limit <= 0 || limit > uc.cfg.Limit {
		limit = uc.cfg.Limit
	}

	found, err := uc.donations.FindNearby(ctx, repository.NearbyQuery{
		Origin:       *actor.Location,
		RadiusMeters: radius,
		AgentID:      actor.UserID,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}

	// the boundary and visibility rule hold regardless of store driver
	out := found[:0]
	for _, item := range found {
		if item.DistanceMeters <= radius && item.Donation.VisibleToAgent(actor.UserID) {
			out = append(out, item)
		}
	}
	domain.SortNearby(out)

	uc.logger.Debug("nearby donations matched",
		zap.String("agent_id", actor.UserID),
		zap.Float64("radius_meters", radius),
		zap.Int("count", len(out)),
	)
	return out, nil
}
