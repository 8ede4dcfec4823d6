package repository

import (
	"context"

	"github.com/Kalwarein/edu-harmony-link/internal/models"
)

type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	AvatarURL   *string
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateEmpty(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (user_id)
		VALUES ($1)
	`, userID)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, first_name, last_name, phone_number, avatar_url, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.PhoneNumber,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(
	ctx context.Context,
	userID string,
	input UpdateProfileInput,
) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name),
		    phone_number = COALESCE($4, phone_number),
		    avatar_url = COALESCE($5, avatar_url),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, first_name, last_name, phone_number, avatar_url, created_at, updated_at
	`
	var profile models.Profile
	err := r.db.QueryRow(
		ctx,
		query,
		userID,
		input.FirstName,
		input.LastName,
		input.PhoneNumber,
		input.AvatarURL,
	).Scan(
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.PhoneNumber,
		&profile.AvatarURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListContacts returns every other profile, optionally filtered by a
// case-insensitive name or phone substring.
func (r *ProfileRepository) ListContacts(
	ctx context.Context,
	excludeUserID string,
	search string,
) ([]models.Contact, error) {
	query := `
		SELECT p.user_id, p.first_name, p.last_name, p.phone_number, u.role, p.avatar_url
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id <> $1
		  AND ($2 = '' OR
		       p.first_name ILIKE '%' || $2 || '%' OR
		       p.last_name ILIKE '%' || $2 || '%' OR
		       p.phone_number LIKE '%' || $2 || '%')
		ORDER BY p.first_name, p.last_name
	`

	rows, err := r.db.Query(ctx, query, excludeUserID, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		var contact models.Contact
		if err := rows.Scan(
			&contact.UserID,
			&contact.FirstName,
			&contact.LastName,
			&contact.PhoneNumber,
			&contact.Role,
			&contact.AvatarURL,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return contacts, nil
}

// GetContact resolves display metadata for a single user.
func (r *ProfileRepository) GetContact(ctx context.Context, userID string) (*models.Contact, error) {
	query := `
		SELECT p.user_id, p.first_name, p.last_name, p.phone_number, u.role, p.avatar_url
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`
	var contact models.Contact
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.PhoneNumber,
		&contact.Role,
		&contact.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	return &contact, nil
}
