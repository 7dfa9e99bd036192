package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

const donationColumns = `
	d.id, d.donor_id, d.agent_id, d.food_type, d.quantity, d.cooking_time,
	d.address, d.city, d.state, d.pincode, d.phone,
	d.donor_to_admin_msg, d.admin_to_agent_msg, d.photo_path,
	ST_X(d.location::geometry), ST_Y(d.location::geometry),
	d.status, d.collection_time, d.feedback_rating, d.feedback_comments,
	d.feedback_given, d.feedback_dismissed,
	d.agent_review_rating, d.agent_review_comments, d.donor_rated,
	d.created_at, d.updated_at`

type donationRepository struct {
	pool *pgxpool.Pool
}

// NewDonationRepository returns a PostGIS-backed implementation of DonationRepository.
func NewDonationRepository(pool *pgxpool.Pool) repository.DonationRepository {
	return &donationRepository{pool: pool}
}

func (r *donationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	if donation == nil {
		return domain.ErrInvalidPayload
	}
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO donations (
		id, donor_id, agent_id, food_type, quantity, cooking_time,
		address, city, state, pincode, phone,
		donor_to_admin_msg, admin_to_agent_msg, photo_path,
		location, status
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		ST_SetSRID(ST_MakePoint($15, $16), 4326)::geography, $17)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		donation.ID,
		donation.DonorID,
		donation.AgentID,
		donation.FoodType,
		donation.Quantity,
		nullTime(donation.CookingTime),
		donation.Address,
		donation.City,
		donation.State,
		donation.Pincode,
		donation.Phone,
		donation.DonorToAdminMsg,
		donation.AdminToAgentMsg,
		donation.PhotoPath,
		donation.Location.Longitude,
		donation.Location.Latitude,
		string(donation.Status),
	).Scan(&donation.CreatedAt, &donation.UpdatedAt); err != nil {
		return mapWriteError(err, "donation")
	}
	return nil
}

func (r *donationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations d WHERE d.id = $1`
	d, err := scanDonation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDonationNotFound
	}
	return d, err
}

func (r *donationRepository) List(ctx context.Context, filter repository.DonationFilter) ([]domain.Donation, error) {
	var w where
	w.filter(filter)
	limit := w.next(repository.ClampLimit(filter.Limit))
	offset := w.next(filter.Offset)

	query := fmt.Sprintf(`
	SELECT %s
	FROM donations d
	WHERE %s
	ORDER BY d.created_at DESC, d.id
	LIMIT %s OFFSET %s
	`, donationColumns, w.String(), limit, offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *donationRepository) CountByStatus(ctx context.Context, filter repository.DonationFilter) (domain.StatusCounts, error) {
	var w where
	w.filter(filter)

	query := `SELECT d.status, COUNT(*) FROM donations d WHERE ` + w.String() + ` GROUP BY d.status`
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := domain.StatusCounts{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.DonationStatus(status)] = n
	}
	return counts, rows.Err()
}

// Transition issues a single UPDATE whose WHERE clause carries the guard, so
// two racing writers cannot both observe the precondition.
func (r *donationRepository) Transition(ctx context.Context, id string, guard repository.Guard, change repository.Change) (*domain.Donation, error) {
	var w where
	var sets []string
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = "+w.next(value))
	}

	if change.Status != "" {
		set("status", string(change.Status))
	}
	if change.ClearAgent {
		sets = append(sets, "agent_id = NULL")
	} else if change.AgentID != "" {
		set("agent_id", change.AgentID)
	}
	if change.CollectionTime != nil {
		set("collection_time", *change.CollectionTime)
	}
	if change.Feedback != nil {
		set("feedback_rating", change.Feedback.Rating)
		set("feedback_comments", nullString(change.Feedback.Comments))
		sets = append(sets, "feedback_given = TRUE")
	}
	if change.FeedbackDismissed {
		sets = append(sets, "feedback_dismissed = TRUE")
	}
	if change.AgentReview != nil {
		set("agent_review_rating", change.AgentReview.Rating)
		set("agent_review_comments", nullString(change.AgentReview.Comments))
		sets = append(sets, "donor_rated = TRUE")
	}
	sets = append(sets, "updated_at = NOW()")

	w.add("d.id = $%[1]d", id)
	w.guard(guard)

	query := fmt.Sprintf(`
	UPDATE donations AS d
	SET %s
	WHERE %s
	RETURNING %s
	`, strings.Join(sets, ", "), w.String(), donationColumns)

	d, err := scanDonation(r.pool.QueryRow(ctx, query, w.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrConditionFailed
	}
	return d, err
}

func (r *donationRepository) DeleteIf(ctx context.Context, id string, guard repository.Guard) error {
	var w where
	w.add("d.id = $%[1]d", id)
	w.guard(guard)

	tag, err := r.pool.Exec(ctx, `DELETE FROM donations AS d WHERE `+w.String(), w.args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConditionFailed
	}
	return nil
}

func (r *donationRepository) FindNearby(ctx context.Context, q repository.NearbyQuery) ([]domain.NearbyDonation, error) {
	var limit interface{}
	if q.Limit > 0 {
		limit = q.Limit
	}

	query := `
	WITH origin AS (
		SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS g
	)
	SELECT ` + donationColumns + `,
		u.id, u.first_name, u.last_name, u.email, u.phone, u.city, u.state, u.donor_rating,
		ST_Distance(d.location, origin.g, false) AS distance
	FROM donations d
	JOIN users u ON u.id = d.donor_id
	CROSS JOIN origin
	WHERE ST_DWithin(d.location, origin.g, $3, false)
	  AND (d.status = 'pending'
	       OR (d.status IN ('requested', 'rejected') AND d.agent_id = $4))
	ORDER BY distance ASC, u.donor_rating DESC, d.id ASC
	LIMIT $5
	`

	rows, err := r.pool.Query(ctx, query,
		q.Origin.Longitude,
		q.Origin.Latitude,
		q.RadiusMeters,
		q.AgentID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.NearbyDonation
	for rows.Next() {
		var (
			item domain.NearbyDonation
			x    rowExtras
		)
		if err := rows.Scan(append(donationDest(&item.Donation, &x),
			&item.Donor.ID,
			&item.Donor.FirstName,
			&item.Donor.LastName,
			&item.Donor.Email,
			&item.Donor.Phone,
			&item.Donor.City,
			&item.Donor.State,
			&item.Donor.Rating,
			&item.DistanceMeters,
		)...); err != nil {
			return nil, err
		}
		x.apply()
		out = append(out, item)
	}
	return out, rows.Err()
}

// rowExtras holds nullable columns that do not map one to one onto Donation.
type rowExtras struct {
	status   string
	cooking  *time.Time
	rating   *int
	comments *string
	review   *int
	remarks  *string
	d        *domain.Donation
}

func donationDest(d *domain.Donation, x *rowExtras) []interface{} {
	x.d = d
	return []interface{}{
		&d.ID,
		&d.DonorID,
		&d.AgentID,
		&d.FoodType,
		&d.Quantity,
		&x.cooking,
		&d.Address,
		&d.City,
		&d.State,
		&d.Pincode,
		&d.Phone,
		&d.DonorToAdminMsg,
		&d.AdminToAgentMsg,
		&d.PhotoPath,
		&d.Location.Longitude,
		&d.Location.Latitude,
		&x.status,
		&d.CollectionTime,
		&x.rating,
		&x.comments,
		&d.FeedbackGiven,
		&d.FeedbackDismissed,
		&x.review,
		&x.remarks,
		&d.DonorRated,
		&d.CreatedAt,
		&d.UpdatedAt,
	}
}

func (x *rowExtras) apply() {
	d := x.d
	d.Status = domain.DonationStatus(x.status)
	if x.cooking != nil {
		d.CookingTime = *x.cooking
	}
	if x.rating != nil {
		fb := domain.Feedback{Rating: *x.rating}
		if x.comments != nil {
			fb.Comments = *x.comments
		}
		d.Feedback = &fb
	}
	if x.review != nil {
		r := domain.Feedback{Rating: *x.review}
		if x.remarks != nil {
			r.Comments = *x.remarks
		}
		d.AgentReview = &r
	}
}

func scanDonation(row scanner) (*domain.Donation, error) {
	var d domain.Donation
	var x rowExtras
	if err := row.Scan(donationDest(&d, &x)...); err != nil {
		return nil, err
	}
	x.apply()
	return &d, nil
}
