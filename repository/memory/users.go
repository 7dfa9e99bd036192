package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

type userRepository struct {
	s *Store
}

// NewUserRepository exposes the store as a UserRepository.
func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	var out []domain.User
	for _, u := range r.s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Verification != "" && u.VerificationStatus != filter.Verification {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if limit := repository.ClampLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *userRepository) Upsert(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.s.now()
	if existing, ok := r.s.users[user.ID]; ok {
		user.JoinedAt = existing.JoinedAt
		user.DonorRating = existing.DonorRating
		if user.Location == nil && existing.Location != nil {
			loc := *existing.Location
			user.Location = &loc
		}
	} else if user.JoinedAt.IsZero() {
		user.JoinedAt = now
	}
	if user.VerificationStatus == "" {
		user.VerificationStatus = domain.VerificationPending
	}
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) UpdateDetails(_ context.Context, id string, details repository.UserDetails) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if details.Email != "" && details.Email != u.Email {
		for other, existing := range r.s.users {
			if other != id && existing.Email == details.Email {
				return nil, domain.NewError(domain.ErrCodeConflict, "user already exists")
			}
		}
	}

	assign := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	assign(&u.FirstName, details.FirstName)
	assign(&u.LastName, details.LastName)
	assign(&u.Email, details.Email)
	assign(&u.Phone, details.Phone)
	assign(&u.Gender, details.Gender)
	assign(&u.Address, details.Address)
	assign(&u.Pincode, details.Pincode)
	u.UpdatedAt = r.s.now()
	return cloneUser(u), nil
}

func (r *userRepository) SetLocation(_ context.Context, id, city, state string, location domain.Point) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.City, u.State = city, state
	u.Location = &location
	u.UpdatedAt = r.s.now()
	return cloneUser(u), nil
}

func (r *userRepository) SetVerification(_ context.Context, id string, status domain.VerificationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.VerificationStatus = status
	u.UpdatedAt = r.s.now()
	return nil
}

func (r *userRepository) RefreshDonorRating(_ context.Context, donorID string) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[donorID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	var sum, n int
	for _, d := range r.s.donations {
		if d.DonorID == donorID && d.DonorRated && d.AgentReview != nil {
			sum += d.AgentReview.Rating
			n++
		}
	}
	u.DonorRating = 0
	if n > 0 {
		u.DonorRating = float64(sum) / float64(n)
	}
	return u.DonorRating, nil
}

func cloneUser(u *domain.User) *domain.User {
	out := *u
	if u.Location != nil {
		loc := *u.Location
		out.Location = &loc
	}
	return &out
}
