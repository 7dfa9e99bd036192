package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
	"github.com/fastygo/foodlink/usecase"
)

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	geocoder usecase.Geocoder
	logger   *zap.Logger
}

// New wires the profile use case. sessions may be nil, in which case
// verification changes do not revoke live sessions.
func New(users repository.UserRepository, sessions repository.SessionRepository, geocoder usecase.Geocoder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		geocoder: geocoder,
		logger:   logger,
	}
}

// RegisterInput is the self-service sign-up payload. Role must be donor or agent.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Address   string
	City      string
	State     string
	Pincode   string
	Role      domain.Role
}

// Details holds the editable descriptive fields. Empty values are left unchanged.
type Details struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Address   string
	Pincode   string
}

func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Role != domain.RoleDonor && in.Role != domain.RoleAgent {
		return nil, domain.NewError(domain.ErrCodeInvalid, "role must be donor or agent")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "first name is required")
	}

	user := &domain.User{
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Email:              strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:              in.Phone,
		Gender:             in.Gender,
		Address:            in.Address,
		City:               in.City,
		State:              in.State,
		Pincode:            in.Pincode,
		Role:               in.Role,
		VerificationStatus: domain.VerificationPending,
	}

	// registration still succeeds without a resolvable location; the
	// matcher asks the agent to fix it later
	if in.City != "" && in.State != "" && uc.geocoder != nil {
		if p, err := uc.geocoder.Geocode(ctx, in.City+", "+in.State); err == nil {
			user.Location = &p
		} else {
			uc.logger.Warn("registration location not resolved", zap.Error(err))
		}
	}

	if err := uc.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// ResolveActor rebuilds the caller's capability from current store state.
func (uc *UseCase) ResolveActor(ctx context.Context, userID string) (domain.Actor, error) {
	if userID == "" {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.Actor{}, domain.ErrUnauthorized
		}
		return domain.Actor{}, err
	}
	return user.Actor(), nil
}

// UpdateProfile writes only the descriptive columns; role and verification
// are owned by registration and the admin.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, details Details) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	update := repository.UserDetails{
		FirstName: strings.TrimSpace(details.FirstName),
		LastName:  strings.TrimSpace(details.LastName),
		Email:     strings.ToLower(strings.TrimSpace(details.Email)),
		Phone:     strings.TrimSpace(details.Phone),
		Gender:    strings.TrimSpace(details.Gender),
		Address:   strings.TrimSpace(details.Address),
		Pincode:   strings.TrimSpace(details.Pincode),
	}
	if update.Empty() {
		return uc.users.GetByID(ctx, userID)
	}
	return uc.users.UpdateDetails(ctx, userID, update)
}

// UpdateLocation geocodes "city, state" and stores it as the user's
// registered location. On failure the profile is left untouched.
func (uc *UseCase) UpdateLocation(ctx context.Context, userID, city, state string) (*domain.User, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" || state == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "city and state are required")
	}
	if _, err := uc.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if uc.geocoder == nil {
		return nil, domain.GeocodeError(city+", "+state, nil)
	}

	address := city + ", " + state
	point, err := uc.geocoder.Geocode(ctx, address)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeGeocode) {
			return nil, err
		}
		return nil, domain.GeocodeError(address, err)
	}

	user, err := uc.users.SetLocation(ctx, userID, city, state, point)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user location updated", zap.String("user_id", userID))
	return user, nil
}

func (uc *UseCase) ListUsers(ctx context.Context, actor domain.Actor, filter repository.UserFilter) ([]domain.User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown role")
	}
	if filter.Verification != "" && !filter.Verification.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown verification status")
	}
	return uc.users.List(ctx, filter)
}

// SetVerification lets an admin change a user's verification status. Live
// sessions of the user are revoked so the next token carries the new state.
func (uc *UseCase) SetVerification(ctx context.Context, actor domain.Actor, userID string, status domain.VerificationStatus) (*domain.User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown verification status")
	}
	if err := uc.users.SetVerification(ctx, userID, status); err != nil {
		return nil, err
	}

	if uc.sessions != nil {
		if err := uc.sessions.DeleteByUser(ctx, userID); err != nil {
			uc.logger.Warn("failed to revoke sessions", zap.String("user_id", userID), zap.Error(err))
		}
	}
	uc.logger.Info("verification status changed",
		zap.String("user_id", userID),
		zap.String("status", string(status)),
		zap.String("admin_id", actor.UserID),
	)
	return uc.users.GetByID(ctx, userID)
}

// EnsureAdmin creates a verified admin with the given id unless one exists.
// It backs the BOOTSTRAP_ADMIN_ID setting.
func (uc *UseCase) EnsureAdmin(ctx context.Context, id, email string) (*domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidPayload
	}
	existing, err := uc.users.GetByID(ctx, id)
	switch {
	case err == nil && existing.Role == domain.RoleAdmin && existing.IsVerified():
		return existing, nil
	case err == nil:
		return nil, domain.NewError(domain.ErrCodeConflict, "bootstrap id belongs to a non-admin user")
	case !domain.IsDomainError(err, domain.ErrCodeNotFound):
		return nil, err
	}

	admin := &domain.User{
		ID:                 id,
		FirstName:          "Admin",
		Email:              strings.ToLower(strings.TrimSpace(email)),
		Role:               domain.RoleAdmin,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := uc.users.Upsert(ctx, admin); err != nil {
		return nil, err
	}
	uc.logger.Info("bootstrap admin created", zap.String("user_id", id))
	return admin, nil
}
