package repository

import (
	"context"

	"github.com/fastygo/foodlink/domain"
)

type UserFilter struct {
	Role         domain.Role
	Verification domain.VerificationStatus
	Limit        int
	Offset       int
}

// UserDetails carries the self-editable profile columns. Empty values are
// left unchanged.
type UserDetails struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Gender    string
	Address   string
	Pincode   string
}

// Empty reports whether no column would be written.
func (d UserDetails) Empty() bool {
	return d == UserDetails{}
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// Upsert writes the whole row, role and verification included. It is
	// meant for registration and bootstrap only.
	Upsert(ctx context.Context, user *domain.User) error
	// UpdateDetails and SetLocation touch only their own columns so they can
	// never undo a concurrent role or verification change.
	UpdateDetails(ctx context.Context, id string, details UserDetails) (*domain.User, error)
	SetLocation(ctx context.Context, id, city, state string, location domain.Point) (*domain.User, error)
	SetVerification(ctx context.Context, id string, status domain.VerificationStatus) error
	// RefreshDonorRating recomputes the donor's average rating from the
	// reviews agents left on their collected donations.
	RefreshDonorRating(ctx context.Context, donorID string) (float64, error)
}
