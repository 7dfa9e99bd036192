// Package mongo stores donations and users as MongoDB documents. Locations
// are GeoJSON points under a 2dsphere index so the matcher can use $geoNear.
package mongo

import (
	"time"

	"github.com/fastygo/foodlink/domain"
)

const (
	donationsCollection = "donations"
	usersCollection     = "users"
)

type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func toGeo(p domain.Point) geoPoint {
	return geoPoint{Type: "Point", Coordinates: p.Coordinates()}
}

func (g *geoPoint) point() domain.Point {
	if g == nil || len(g.Coordinates) != 2 {
		return domain.Point{}
	}
	return domain.Point{Longitude: g.Coordinates[0], Latitude: g.Coordinates[1]}
}

type feedbackDoc struct {
	Rating   int    `bson:"rating"`
	Comments string `bson:"comments,omitempty"`
}

type donationDoc struct {
	ID                string       `bson:"_id"`
	DonorID           string       `bson:"donor_id"`
	AgentID           *string      `bson:"agent_id"`
	FoodType          string       `bson:"food_type"`
	Quantity          string       `bson:"quantity"`
	CookingTime       time.Time    `bson:"cooking_time,omitempty"`
	Address           string       `bson:"address"`
	City              string       `bson:"city"`
	State             string       `bson:"state"`
	Pincode           string       `bson:"pincode,omitempty"`
	Phone             string       `bson:"phone"`
	DonorToAdminMsg   string       `bson:"donor_to_admin_msg,omitempty"`
	AdminToAgentMsg   string       `bson:"admin_to_agent_msg,omitempty"`
	PhotoPath         string       `bson:"photo_path,omitempty"`
	Location          geoPoint     `bson:"location"`
	Status            string       `bson:"status"`
	CollectionTime    *time.Time   `bson:"collection_time,omitempty"`
	Feedback          *feedbackDoc `bson:"feedback,omitempty"`
	FeedbackGiven     bool         `bson:"feedback_given"`
	FeedbackDismissed bool         `bson:"feedback_dismissed"`
	AgentReview       *feedbackDoc `bson:"agent_review,omitempty"`
	DonorRated        bool         `bson:"donor_rated"`
	CreatedAt         time.Time    `bson:"created_at"`
	UpdatedAt         time.Time    `bson:"updated_at"`
}

func fromDonation(d *domain.Donation) donationDoc {
	doc := donationDoc{
		ID:                d.ID,
		DonorID:           d.DonorID,
		AgentID:           d.AgentID,
		FoodType:          d.FoodType,
		Quantity:          d.Quantity,
		CookingTime:       d.CookingTime,
		Address:           d.Address,
		City:              d.City,
		State:             d.State,
		Pincode:           d.Pincode,
		Phone:             d.Phone,
		DonorToAdminMsg:   d.DonorToAdminMsg,
		AdminToAgentMsg:   d.AdminToAgentMsg,
		PhotoPath:         d.PhotoPath,
		Location:          toGeo(d.Location),
		Status:            string(d.Status),
		CollectionTime:    d.CollectionTime,
		FeedbackGiven:     d.FeedbackGiven,
		FeedbackDismissed: d.FeedbackDismissed,
		DonorRated:        d.DonorRated,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.Feedback != nil {
		doc.Feedback = &feedbackDoc{Rating: d.Feedback.Rating, Comments: d.Feedback.Comments}
	}
	if d.AgentReview != nil {
		doc.AgentReview = &feedbackDoc{Rating: d.AgentReview.Rating, Comments: d.AgentReview.Comments}
	}
	return doc
}

func (doc *donationDoc) donation() domain.Donation {
	d := domain.Donation{
		ID:                doc.ID,
		DonorID:           doc.DonorID,
		AgentID:           doc.AgentID,
		FoodType:          doc.FoodType,
		Quantity:          doc.Quantity,
		CookingTime:       doc.CookingTime,
		Address:           doc.Address,
		City:              doc.City,
		State:             doc.State,
		Pincode:           doc.Pincode,
		Phone:             doc.Phone,
		DonorToAdminMsg:   doc.DonorToAdminMsg,
		AdminToAgentMsg:   doc.AdminToAgentMsg,
		PhotoPath:         doc.PhotoPath,
		Location:          doc.Location.point(),
		Status:            domain.DonationStatus(doc.Status),
		CollectionTime:    doc.CollectionTime,
		FeedbackGiven:     doc.FeedbackGiven,
		FeedbackDismissed: doc.FeedbackDismissed,
		DonorRated:        doc.DonorRated,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	if doc.Feedback != nil {
		d.Feedback = &domain.Feedback{Rating: doc.Feedback.Rating, Comments: doc.Feedback.Comments}
	}
	if doc.AgentReview != nil {
		d.AgentReview = &domain.Feedback{Rating: doc.AgentReview.Rating, Comments: doc.AgentReview.Comments}
	}
	return d
}

type userDoc struct {
	ID                 string    `bson:"_id"`
	FirstName          string    `bson:"first_name"`
	LastName           string    `bson:"last_name"`
	Email              string    `bson:"email"`
	Phone              string    `bson:"phone"`
	Gender             string    `bson:"gender,omitempty"`
	Address            string    `bson:"address,omitempty"`
	City               string    `bson:"city,omitempty"`
	State              string    `bson:"state,omitempty"`
	Pincode            string    `bson:"pincode,omitempty"`
	Role               string    `bson:"role"`
	VerificationStatus string    `bson:"verification_status"`
	Location           *geoPoint `bson:"location,omitempty"`
	DonorRating        float64   `bson:"donor_rating"`
	JoinedAt           time.Time `bson:"joined_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func (doc *userDoc) user() domain.User {
	u := domain.User{
		ID:                 doc.ID,
		FirstName:          doc.FirstName,
		LastName:           doc.LastName,
		Email:              doc.Email,
		Phone:              doc.Phone,
		Gender:             doc.Gender,
		Address:            doc.Address,
		City:               doc.City,
		State:              doc.State,
		Pincode:            doc.Pincode,
		Role:               domain.Role(doc.Role),
		VerificationStatus: domain.VerificationStatus(doc.VerificationStatus),
		DonorRating:        doc.DonorRating,
		JoinedAt:           doc.JoinedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
	if doc.Location != nil {
		p := doc.Location.point()
		u.Location = &p
	}
	return u
}

type nearbyDoc struct {
	Donation donationDoc `bson:",inline"`
	Donor    userDoc     `bson:"donor"`
	Distance float64     `bson:"distance"`
}
