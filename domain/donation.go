package domain

import (
	"sort"
	"time"
)

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

const (
	StatusPending   DonationStatus = "pending"
	StatusRequested DonationStatus = "requested"
	StatusAssigned  DonationStatus = "assigned"
	StatusCollected DonationStatus = "collected"
	StatusRejected  DonationStatus = "rejected"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []DonationStatus{StatusPending, StatusRequested, StatusAssigned, StatusCollected, StatusRejected}

func (s DonationStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Feedback is a 1..5 rating with optional comments. Donors leave it on the
// collection; the assigned agent leaves one on the donor.
type Feedback struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments,omitempty"`
}

func (f Feedback) Validate() error {
	if f.Rating < 1 || f.Rating > 5 {
		return NewError(ErrCodeInvalid, "rating must be between 1 and 5")
	}
	return nil
}

// Donation is a listing of surplus food.
type Donation struct {
	ID                string         `json:"id"`
	DonorID           string         `json:"donor_id"`
	AgentID           *string        `json:"agent_id,omitempty"`
	FoodType          string         `json:"food_type"`
	Quantity          string         `json:"quantity"`
	CookingTime       time.Time      `json:"cooking_time"`
	Address           string         `json:"address"`
	City              string         `json:"city"`
	State             string         `json:"state"`
	Pincode           string         `json:"pincode,omitempty"`
	Phone             string         `json:"phone"`
	DonorToAdminMsg   string         `json:"donor_to_admin_msg,omitempty"`
	AdminToAgentMsg   string         `json:"admin_to_agent_msg,omitempty"`
	PhotoPath         string         `json:"photo_path,omitempty"`
	Location          Point          `json:"location"`
	Status            DonationStatus `json:"status"`
	CollectionTime    *time.Time     `json:"collection_time,omitempty"`
	Feedback          *Feedback      `json:"feedback,omitempty"`
	FeedbackGiven     bool           `json:"feedback_given"`
	FeedbackDismissed bool           `json:"feedback_dismissed"`
	AgentReview       *Feedback      `json:"agent_review,omitempty"`
	DonorRated        bool           `json:"donor_rated"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Agent returns the current assignee or an empty string.
func (d *Donation) Agent() string {
	if d == nil || d.AgentID == nil {
		return ""
	}
	return *d.AgentID
}

func (d *Donation) IsOwnedBy(userID string) bool {
	return d != nil && userID != "" && d.DonorID == userID
}

func (d *Donation) IsAssignedTo(userID string) bool {
	return d != nil && userID != "" && d.Agent() == userID
}

// VisibleToAgent reports whether the donation belongs to the agent's matching pool.
func (d *Donation) VisibleToAgent(agentID string) bool {
	if d == nil {
		return false
	}
	switch d.Status {
	case StatusPending:
		return true
	case StatusRequested, StatusRejected:
		return d.IsAssignedTo(agentID)
	}
	return false
}

// Clone returns a deep copy so callers never share pointers with a store.
func (d *Donation) Clone() *Donation {
	if d == nil {
		return nil
	}
	out := *d
	if d.AgentID != nil {
		agent := *d.AgentID
		out.AgentID = &agent
	}
	if d.CollectionTime != nil {
		ct := *d.CollectionTime
		out.CollectionTime = &ct
	}
	if d.Feedback != nil {
		fb := *d.Feedback
		out.Feedback = &fb
	}
	if d.AgentReview != nil {
		r := *d.AgentReview
		out.AgentReview = &r
	}
	return &out
}

// DonorDetails is a read-only projection of the donor joined into donation views.
type DonorDetails struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Rating    float64 `json:"rating"`
}

// DonationView is a donation with its parties resolved.
type DonationView struct {
	Donation
	Donor DonorDetails  `json:"donor"`
	Agent *DonorDetails `json:"agent,omitempty"`
}

// NearbyDonation is a matcher result.
type NearbyDonation struct {
	Donation
	Donor          DonorDetails `json:"donor"`
	DistanceMeters float64      `json:"distance_meters"`
}

// SortNearby orders matcher results nearest first, breaking distance ties
// by donor rating (highest first) and then by id.
func SortNearby(items []NearbyDonation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.DistanceMeters != b.DistanceMeters {
			return a.DistanceMeters < b.DistanceMeters
		}
		if a.Donor.Rating != b.Donor.Rating {
			return a.Donor.Rating > b.Donor.Rating
		}
		return a.ID < b.ID
	})
}

// CollectionRecord is handed to the notifier after a donation is collected.
type CollectionRecord struct {
	DonationID     string            `json:"donation_id"`
	FoodType       string            `json:"food_type"`
	Quantity       string            `json:"quantity"`
	Address        string            `json:"address"`
	DonorName      string            `json:"donor_name"`
	DonorEmail     string            `json:"donor_email"`
	AgentName      string            `json:"agent_name"`
	AgentEmail     string            `json:"agent_email"`
	CollectionTime time.Time         `json:"collection_time"`
	Checklist      map[string]string `json:"checklist,omitempty"`
}

// StatusCounts is a dashboard summary keyed by status.
type StatusCounts map[DonationStatus]int
