package donation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
	"github.com/fastygo/foodlink/usecase"
)

var errNotifierMissing = errors.New("no notifier configured")

// UseCase drives the donation lifecycle. Every write is a single guarded
// store operation; failed guards are classified by re-reading the record.
type UseCase struct {
	donations repository.DonationRepository
	users     repository.UserRepository
	geocoder  usecase.Geocoder
	notifier  usecase.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func New(
	donations repository.DonationRepository,
	users repository.UserRepository,
	geocoder usecase.Geocoder,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		donations: donations,
		users:     users,
		geocoder:  geocoder,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput carries the descriptive fields a donor submits.
type CreateInput struct {
	FoodType        string
	Quantity        string
	CookingTime     time.Time
	Address         string
	City            string
	State           string
	Pincode         string
	Phone           string
	DonorToAdminMsg string
	PhotoPath       string
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.FoodType) == "" || strings.TrimSpace(in.Quantity) == "" {
		return domain.NewError(domain.ErrCodeInvalid, "food type and quantity are required")
	}
	if strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.State) == "" {
		return domain.NewError(domain.ErrCodeInvalid, "city and state are required")
	}
	return nil
}

// Notification is the outcome of publishing the collection record. A failed
// delivery never rolls back the collection.
type Notification struct {
	Delivered bool
	Err       error
}

type CollectResult struct {
	Donation     *domain.Donation
	Record       domain.CollectionRecord
	Notification Notification
}

func (uc *UseCase) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Donation, error) {
	if err := actor.RequireDonor(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	location, err := uc.locate(ctx, in.Address, in.City, in.State)
	if err != nil {
		return nil, err
	}

	rule, _ := domain.RuleFor(domain.EventCreate)
	d := &domain.Donation{
		DonorID:         actor.UserID,
		FoodType:        in.FoodType,
		Quantity:        in.Quantity,
		CookingTime:     in.CookingTime,
		Address:         in.Address,
		City:            in.City,
		State:           in.State,
		Pincode:         in.Pincode,
		Phone:           in.Phone,
		DonorToAdminMsg: in.DonorToAdminMsg,
		PhotoPath:       in.PhotoPath,
		Location:        location,
		Status:          rule.To,
	}
	if err := uc.donations.Create(ctx, d); err != nil {
		return nil, err
	}

	uc.logger.Info("donation created",
		zap.String("donation_id", d.ID),
		zap.String("donor_id", d.DonorID),
	)
	return d, nil
}

// locate geocodes the full address first and falls back to city and state.
func (uc *UseCase) locate(ctx context.Context, address, city, state string) (domain.Point, error) {
	if uc.geocoder == nil {
		return domain.Point{}, domain.GeocodeError(city+", "+state, errors.New("no geocoder configured"))
	}
	coarse := joinAddress(city, state)
	queries := []string{coarse}
	if strings.TrimSpace(address) != "" {
		queries = []string{joinAddress(address, city, state), coarse}
	}

	var lastErr error
	for _, q := range queries {
		p, err := uc.geocoder.Geocode(ctx, q)
		if err == nil {
			return p, nil
		}
		lastErr = err
		uc.logger.Debug("geocode attempt failed", zap.String("address", q), zap.Error(err))
	}
	if domain.IsDomainError(lastErr, domain.ErrCodeGeocode) {
		return domain.Point{}, lastErr
	}
	return domain.Point{}, domain.GeocodeError(coarse, lastErr)
}

func joinAddress(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// Get returns a donation with its parties. Verified agents may view any
// pending donation; otherwise only the donor, the agent and admins can.
func (uc *UseCase) Get(ctx context.Context, actor domain.Actor, id string) (*domain.DonationView, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	d, err := uc.donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	visible := actor.IsAdmin() || d.IsOwnedBy(actor.UserID) ||
		(d.IsAssignedTo(actor.UserID) && actor.IsVerified()) ||
		(d.Status == domain.StatusPending && actor.RequireVerifiedAgent() == nil)
	if !visible {
		return nil, domain.ErrNotAuthorized
	}

	views := uc.resolve(ctx, []domain.Donation{*d})
	return &views[0], nil
}

func (uc *UseCase) Request(ctx context.Context, actor domain.Actor, id string) (*domain.Donation, error) {
	return uc.fire(ctx, actor, id, domain.EventRequest, repository.Change{AgentID: actor.UserID})
}

func (uc *UseCase) Accept(ctx context.Context, actor domain.Actor, id string) (*domain.Donation, error) {
	return uc.fire(ctx, actor, id, domain.EventAccept, repository.Change{})
}

func (uc *UseCase) Reject(ctx context.Context, actor domain.Actor, id string) (*domain.Donation, error) {
	return uc.fire(ctx, actor, id, domain.EventReject, repository.Change{ClearAgent: true})
}

// Collect marks an assigned donation collected and publishes the collection
// record. The returned error is non-nil only when the transition itself failed.
func (uc *UseCase) Collect(ctx context.Context, actor domain.Actor, id string, checklist map[string]string) (*CollectResult, error) {
	now := uc.now()
	d, err := uc.fire(ctx, actor, id, domain.EventCollect, repository.Change{CollectionTime: &now})
	if err != nil {
		return nil, err
	}

	result := &CollectResult{Donation: d}
	result.Record, err = uc.collectionRecord(ctx, d, checklist)
	if err != nil {
		result.Notification.Err = err
	} else {
		result.Notification = uc.notify(ctx, result.Record)
	}

	if result.Notification.Err != nil {
		uc.logger.Warn("collection notification not delivered",
			zap.String("donation_id", d.ID),
			zap.Error(result.Notification.Err),
		)
	}
	return result, nil
}

func (uc *UseCase) notify(ctx context.Context, record domain.CollectionRecord) Notification {
	if uc.notifier == nil {
		return Notification{Err: errNotifierMissing}
	}
	if err := uc.notifier.NotifyCollection(ctx, record); err != nil {
		return Notification{Err: err}
	}
	return Notification{Delivered: true}
}

func (uc *UseCase) collectionRecord(ctx context.Context, d *domain.Donation, checklist map[string]string) (domain.CollectionRecord, error) {
	record := domain.CollectionRecord{
		DonationID: d.ID,
		FoodType:   d.FoodType,
		Quantity:   d.Quantity,
		Address:    joinAddress(d.Address, d.City, d.State),
		Checklist:  checklist,
	}
	if d.CollectionTime != nil {
		record.CollectionTime = *d.CollectionTime
	}

	donor, err := uc.users.GetByID(ctx, d.DonorID)
	if err != nil {
		return record, err
	}
	agent, err := uc.users.GetByID(ctx, d.Agent())
	if err != nil {
		return record, err
	}
	record.DonorName, record.DonorEmail = donor.FullName(), donor.Email
	record.AgentName, record.AgentEmail = agent.FullName(), agent.Email
	return record, nil
}

// DeleteRejected removes a donation that was claimed or turned down. Only
// its donor, its current agent or an admin may do so.
func (uc *UseCase) DeleteRejected(ctx context.Context, actor domain.Actor, id string) error {
	_, err := uc.fire(ctx, actor, id, domain.EventDelete, repository.Change{})
	return err
}

// SubmitFeedback records the donor's own review of the collection. It does
// not touch the donor's rating.
func (uc *UseCase) SubmitFeedback(ctx context.Context, actor domain.Actor, id string, feedback domain.Feedback) (*domain.Donation, error) {
	if err := feedback.Validate(); err != nil {
		return nil, err
	}
	return uc.fire(ctx, actor, id, domain.EventFeedback, repository.Change{Feedback: &feedback})
}

// RateDonor lets the agent who collected the donation rate its donor, once.
// The donor's rating is then recomputed from every such review.
func (uc *UseCase) RateDonor(ctx context.Context, actor domain.Actor, id string, review domain.Feedback) (*domain.Donation, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}
	d, err := uc.fire(ctx, actor, id, domain.EventRateDonor, repository.Change{AgentReview: &review})
	if err != nil {
		return nil, err
	}

	if _, err := uc.users.RefreshDonorRating(ctx, d.DonorID); err != nil {
		uc.logger.Warn("failed to refresh donor rating",
			zap.String("donor_id", d.DonorID),
			zap.Error(err),
		)
	}
	return d, nil
}

func (uc *UseCase) DismissFeedback(ctx context.Context, actor domain.Actor, id string) (*domain.Donation, error) {
	return uc.fire(ctx, actor, id, domain.EventDismissFeedback, repository.Change{FeedbackDismissed: true})
}

// fire runs one lifecycle edge as a conditional write.
func (uc *UseCase) fire(ctx context.Context, actor domain.Actor, id string, event domain.Event, change repository.Change) (*domain.Donation, error) {
	rule, ok := domain.RuleFor(event)
	if !ok {
		return nil, domain.InvalidTransition("", event)
	}
	if err := precheck(actor, rule.Party); err != nil {
		return nil, err
	}

	guard := guardFor(rule, actor)
	switch event {
	case domain.EventFeedback:
		guard.FeedbackOpen = true
	case domain.EventRateDonor:
		guard.RatingOpen = true
	}

	if event == domain.EventDelete {
		err := uc.donations.DeleteIf(ctx, id, guard)
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, uc.classify(ctx, actor, id, rule)
		}
		if err != nil {
			return nil, err
		}
		uc.logger.Info("donation deleted",
			zap.String("donation_id", id),
			zap.String("actor_id", actor.UserID),
		)
		return nil, nil
	}

	change.Status = rule.To
	d, err := uc.donations.Transition(ctx, id, guard, change)
	if errors.Is(err, repository.ErrConditionFailed) {
		return nil, uc.classify(ctx, actor, id, rule)
	}
	if err != nil {
		return nil, err
	}

	uc.logger.Info("donation transitioned",
		zap.String("donation_id", d.ID),
		zap.String("event", string(event)),
		zap.String("status", string(d.Status)),
		zap.String("actor_id", actor.UserID),
	)
	return d, nil
}

// precheck rejects actors that can never satisfy the rule, before any write.
func precheck(actor domain.Actor, party domain.Party) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	if actor.Role == domain.RoleAgent && !actor.IsVerified() {
		return domain.ErrAgentNotVerified
	}
	switch party {
	case domain.PartyVerifiedAgent:
		return actor.RequireVerifiedAgent()
	case domain.PartyDonor:
		return actor.RequireDonor()
	}
	return nil
}

func guardFor(rule domain.Rule, actor domain.Actor) repository.Guard {
	guard := repository.Guard{Statuses: rule.From}
	switch rule.Party {
	case domain.PartyOwner:
		guard.DonorID = actor.UserID
	case domain.PartyAssignee:
		guard.AgentID = actor.UserID
	case domain.PartyOwnerOrAssignee:
		guard.PartyID = actor.UserID
	case domain.PartyOwnerAssigneeOrAdmin:
		if !actor.IsAdmin() {
			guard.PartyID = actor.UserID
		}
	}
	return guard
}

// classify explains why a guarded write matched nothing.
func (uc *UseCase) classify(ctx context.Context, actor domain.Actor, id string, rule domain.Rule) error {
	current, err := uc.donations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// state is judged before the party: a pending donation has no assignee
	if !rule.Allows(current.Status) {
		if rule.Event == domain.EventCollect && current.Status == domain.StatusCollected {
			return domain.ErrAlreadyProcessed
		}
		return domain.InvalidTransition(current.Status, rule.Event)
	}
	if !actor.Satisfies(rule.Party, current) {
		return domain.ErrNotAuthorized
	}
	if rule.Event == domain.EventFeedback && current.FeedbackGiven {
		return domain.ErrFeedbackSubmitted
	}
	if rule.Event == domain.EventRateDonor && current.DonorRated {
		return domain.ErrDonorRated
	}
	// the guard holds again, so a concurrent writer moved the record and back
	return domain.WrapError(domain.ErrCodeConflict, "donation changed concurrently, retry", repository.ErrConditionFailed)
}
