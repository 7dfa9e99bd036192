// Package memory keeps donations and users in process. It backs tests and
// STORE_DRIVER=memory; every guarded write runs under a single lock so it
// has the same compare-and-set behaviour as the database stores.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

type Store struct {
	mu        sync.RWMutex
	donations map[string]*domain.Donation
	users     map[string]*domain.User
	now       func() time.Time
}

func New() *Store {
	return &Store{
		donations: make(map[string]*domain.Donation),
		users:     make(map[string]*domain.User),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type donationRepository struct {
	s *Store
}

// NewDonationRepository exposes the store as a DonationRepository.
func NewDonationRepository(s *Store) repository.DonationRepository {
	return &donationRepository{s: s}
}

func (r *donationRepository) Create(_ context.Context, donation *domain.Donation) error {
	if donation == nil {
		return domain.ErrInvalidPayload
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if _, exists := r.s.donations[donation.ID]; exists {
		return domain.NewError(domain.ErrCodeConflict, "donation already exists")
	}
	now := r.s.now()
	donation.CreatedAt = now
	donation.UpdatedAt = now
	r.s.donations[donation.ID] = donation.Clone()
	return nil
}

func (r *donationRepository) GetByID(_ context.Context, id string) (*domain.Donation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.donations[id]
	if !ok {
		return nil, domain.ErrDonationNotFound
	}
	return d.Clone(), nil
}

func (r *donationRepository) List(_ context.Context, filter repository.DonationFilter) ([]domain.Donation, error) {
	r.s.mu.RLock()
	matched := r.s.filterLocked(filter)
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if limit := repository.ClampLimit(filter.Limit); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *donationRepository) CountByStatus(_ context.Context, filter repository.DonationFilter) (domain.StatusCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := domain.StatusCounts{}
	for _, d := range r.s.filterLocked(filter) {
		counts[d.Status]++
	}
	return counts, nil
}

func (r *donationRepository) Transition(_ context.Context, id string, guard repository.Guard, change repository.Change) (*domain.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.donations[id]
	if !ok || !guard.Matches(d) {
		return nil, repository.ErrConditionFailed
	}
	change.Apply(d, r.s.now())
	return d.Clone(), nil
}

func (r *donationRepository) DeleteIf(_ context.Context, id string, guard repository.Guard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.donations[id]
	if !ok || !guard.Matches(d) {
		return repository.ErrConditionFailed
	}
	delete(r.s.donations, id)
	return nil
}

func (r *donationRepository) FindNearby(_ context.Context, query repository.NearbyQuery) ([]domain.NearbyDonation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.NearbyDonation
	for _, d := range r.s.donations {
		if !d.VisibleToAgent(query.AgentID) {
			continue
		}
		dist := query.Origin.DistanceMeters(d.Location)
		if dist > query.RadiusMeters {
			continue
		}
		// inner join on the donor, like the database stores
		donor, ok := r.s.users[d.DonorID]
		if !ok {
			continue
		}
		out = append(out, domain.NearbyDonation{
			Donation:       *d.Clone(),
			Donor:          donor.Details(),
			DistanceMeters: dist,
		})
	}

	domain.SortNearby(out)
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *Store) filterLocked(filter repository.DonationFilter) []domain.Donation {
	guard := repository.Guard{Statuses: filter.Statuses, DonorID: filter.DonorID, AgentID: filter.AgentID}
	var out []domain.Donation
	for _, d := range s.donations {
		if guard.Matches(d) {
			out = append(out, *d.Clone())
		}
	}
	return out
}
