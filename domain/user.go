package domain

import "time"

// Role is the privilege tier of a user.
type Role string

const (
	RoleDonor Role = "donor"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// VerificationStatus is set by an admin after reviewing the account.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "Pending"
	VerificationVerified VerificationStatus = "Verified"
	VerificationRejected VerificationStatus = "Rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// User represents a donor, agent or admin account.
type User struct {
	ID                 string             `json:"id"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	Email              string             `json:"email,omitempty"`
	Phone              string             `json:"phone,omitempty"`
	Gender             string             `json:"gender,omitempty"`
	Address            string             `json:"address,omitempty"`
	City               string             `json:"city,omitempty"`
	State              string             `json:"state,omitempty"`
	Pincode            string             `json:"pincode,omitempty"`
	Role               Role               `json:"role"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	Location           *Point             `json:"location,omitempty"`
	DonorRating        float64            `json:"donor_rating"`
	JoinedAt           time.Time          `json:"joined_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (u *User) IsVerified() bool {
	return u != nil && u.VerificationStatus == VerificationVerified
}

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor builds the capability handed to lifecycle and matching calls.
func (u *User) Actor() Actor {
	if u == nil {
		return Actor{}
	}
	a := Actor{
		UserID:       u.ID,
		Role:         u.Role,
		Verification: u.VerificationStatus,
	}
	if u.Location != nil {
		loc := *u.Location
		a.Location = &loc
	}
	return a
}

// Details returns the read-only projection joined into donation views.
func (u *User) Details() DonorDetails {
	if u == nil {
		return DonorDetails{}
	}
	return DonorDetails{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		City:      u.City,
		State:     u.State,
		Rating:    u.DonorRating,
	}
}
