package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/foodlink/domain"
	"github.com/fastygo/foodlink/repository"
)

const userColumns = `
	id, first_name, last_name, email, phone, gender, address, city, state, pincode,
	role, verification_status,
	ST_X(location::geometry), ST_Y(location::geometry),
	donor_rating, joined_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var w where
	if filter.Role != "" {
		w.add("role = $%[1]d", string(filter.Role))
	}
	if filter.Verification != "" {
		w.add("verification_status = $%[1]d", string(filter.Verification))
	}
	limit := w.next(repository.ClampLimit(filter.Limit))
	offset := w.next(filter.Offset)

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY id LIMIT %s OFFSET %s`,
		userColumns, w.String(), limit, offset)

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.VerificationStatus == "" {
		user.VerificationStatus = domain.VerificationPending
	}

	var lng, lat interface{}
	if user.Location != nil {
		lng, lat = user.Location.Longitude, user.Location.Latitude
	}

	const query = `
	INSERT INTO users (
		id, first_name, last_name, email, phone, gender, address, city, state, pincode,
		role, verification_status, location, joined_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		CASE WHEN $13::float8 IS NULL THEN NULL
		     ELSE ST_SetSRID(ST_MakePoint($13, $14), 4326)::geography END,
		COALESCE($15, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		gender = EXCLUDED.gender,
		address = EXCLUDED.address,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		pincode = EXCLUDED.pincode,
		role = EXCLUDED.role,
		verification_status = EXCLUDED.verification_status,
		location = COALESCE(EXCLUDED.location, users.location),
		updated_at = NOW()
	RETURNING donor_rating, joined_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Gender,
		user.Address,
		user.City,
		user.State,
		user.Pincode,
		string(user.Role),
		string(user.VerificationStatus),
		lng,
		lat,
		nullTime(user.JoinedAt),
	).Scan(&user.DonorRating, &user.JoinedAt, &user.UpdatedAt); err != nil {
		return mapWriteError(err, "user")
	}
	return nil
}

func (r *userRepository) UpdateDetails(ctx context.Context, id string, details repository.UserDetails) (*domain.User, error) {
	const query = `
	UPDATE users
	SET first_name = COALESCE(NULLIF($2, ''), first_name),
		last_name = COALESCE(NULLIF($3, ''), last_name),
		email = COALESCE(NULLIF($4, ''), email),
		phone = COALESCE(NULLIF($5, ''), phone),
		gender = COALESCE(NULLIF($6, ''), gender),
		address = COALESCE(NULLIF($7, ''), address),
		pincode = COALESCE(NULLIF($8, ''), pincode),
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query,
		id,
		details.FirstName,
		details.LastName,
		details.Email,
		details.Phone,
		details.Gender,
		details.Address,
		details.Pincode,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, mapWriteError(err, "user")
	}
	return user, nil
}

func (r *userRepository) SetLocation(ctx context.Context, id, city, state string, location domain.Point) (*domain.User, error) {
	const query = `
	UPDATE users
	SET city = $2,
		state = $3,
		location = ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id, city, state, location.Longitude, location.Latitude))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) SetVerification(ctx context.Context, id string, status domain.VerificationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET verification_status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) RefreshDonorRating(ctx context.Context, donorID string) (float64, error) {
	const query = `
	UPDATE users u
	SET donor_rating = COALESCE((
			SELECT AVG(d.agent_review_rating)::float8
			FROM donations d
			WHERE d.donor_id = u.id AND d.donor_rated
		), 0),
		updated_at = NOW()
	WHERE u.id = $1
	RETURNING u.donor_rating
	`
	var rating float64
	if err := r.pool.QueryRow(ctx, query, donorID).Scan(&rating); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	return rating, nil
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user         domain.User
		role, status string
		lng, lat     *float64
	)
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Gender,
		&user.Address,
		&user.City,
		&user.State,
		&user.Pincode,
		&role,
		&status,
		&lng,
		&lat,
		&user.DonorRating,
		&user.JoinedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	user.VerificationStatus = domain.VerificationStatus(status)
	if lng != nil && lat != nil {
		user.Location = &domain.Point{Longitude: *lng, Latitude: *lat}
	}
	return &user, nil
}
