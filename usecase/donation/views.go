package donation

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

// View selects one of the role specific donation listings.
type View string

const (
	ViewPending     View = "pending"
	ViewPrevious    View = "previous"
	ViewRequests    View = "requests"
	ViewRejected    View = "rejected"
	ViewCollections View = "collections"
	ViewHistory     View = "history"
)

type Page struct {
	Limit  int
	Offset int
}

var (
	donorViews = map[View][]domain.DonationStatus{
		ViewPending:  {domain.StatusPending},
		ViewRequests: {domain.StatusRequested},
		ViewPrevious: {domain.StatusCollected},
		ViewRejected: {domain.StatusRejected},
		ViewHistory:  nil,
	}
	agentViews = map[View][]domain.DonationStatus{
		ViewRequests:    {domain.StatusRequested},
		ViewCollections: {domain.StatusAssigned},
		ViewPrevious:    {domain.StatusCollected},
		ViewRejected:    {domain.StatusRejected},
		ViewHistory:     nil,
	}
	adminViews = map[View][]domain.DonationStatus{
		ViewPending:     {domain.StatusPending},
		ViewRequests:    {domain.StatusRequested},
		ViewCollections: {domain.StatusAssigned},
		ViewPrevious:    {domain.StatusCollected},
		ViewRejected:    {domain.StatusRejected},
		ViewHistory:     nil,
	}

	donorDashboard = []domain.DonationStatus{domain.StatusPending, domain.StatusRequested, domain.StatusAssigned, domain.StatusCollected}
	agentDashboard = []domain.DonationStatus{domain.StatusAssigned, domain.StatusCollected, domain.StatusRejected}
)

// List returns one of the actor's listings with donor and agent resolved.
func (uc *UseCase) List(ctx context.Context, actor domain.Actor, view View, page Page) ([]domain.DonationView, error) {
	filter, err := listFilter(actor, view)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = page.Limit, page.Offset

	items, err := uc.donations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.resolve(ctx, items), nil
}

func listFilter(actor domain.Actor, view View) (repository.DonationFilter, error) {
	var (
		filter repository.DonationFilter
		views  map[View][]domain.DonationStatus
	)
	switch actor.Role {
	case domain.RoleDonor:
		if actor.UserID == "" {
			return filter, domain.ErrUnauthorized
		}
		filter.DonorID, views = actor.UserID, donorViews
	case domain.RoleAgent:
		if err := actor.RequireVerifiedAgent(); err != nil {
			return filter, err
		}
		filter.AgentID, views = actor.UserID, agentViews
	case domain.RoleAdmin:
		if err := actor.RequireAdmin(); err != nil {
			return filter, err
		}
		views = adminViews
	default:
		return filter, domain.ErrUnauthorized
	}

	statuses, ok := views[view]
	if !ok {
		return filter, domain.NewError(domain.ErrCodeInvalid, "unknown listing "+string(view)+" for role "+string(actor.Role))
	}
	filter.Statuses = statuses
	return filter, nil
}

// Dashboard counts the actor's donations per status. Admins see global counts.
func (uc *UseCase) Dashboard(ctx context.Context, actor domain.Actor) (domain.StatusCounts, error) {
	var (
		filter repository.DonationFilter
		keys   []domain.DonationStatus
	)
	switch actor.Role {
	case domain.RoleDonor:
		filter.DonorID, keys = actor.UserID, donorDashboard
	case domain.RoleAgent:
		if err := actor.RequireVerifiedAgent(); err != nil {
			return nil, err
		}
		filter.AgentID, keys = actor.UserID, agentDashboard
	case domain.RoleAdmin:
		keys = domain.AllStatuses
	default:
		return nil, domain.ErrUnauthorized
	}
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	filter.Statuses = keys

	counts, err := uc.donations.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make(domain.StatusCounts, len(keys))
	for _, k := range keys {
		out[k] = counts[k]
	}
	return out, nil
}

// resolve joins donor and agent details. Missing users leave only the id.
func (uc *UseCase) resolve(ctx context.Context, items []domain.Donation) []domain.DonationView {
	seen := make(map[string]domain.DonorDetails)
	lookup := func(id string) domain.DonorDetails {
		if details, ok := seen[id]; ok {
			return details
		}
		details := domain.DonorDetails{ID: id}
		if u, err := uc.users.GetByID(ctx, id); err == nil {
			details = u.Details()
		} else {
			uc.logger.Debug("party lookup failed", zap.String("user_id", id), zap.Error(err))
		}
		seen[id] = details
		return details
	}

	out := make([]domain.DonationView, 0, len(items))
	for _, d := range items {
		view := domain.DonationView{Donation: d, Donor: lookup(d.DonorID)}
		if agentID := d.Agent(); agentID != "" {
			agent := lookup(agentID)
			view.Agent = &agent
		}
		out = append(out, view)
	}
	return out
}
