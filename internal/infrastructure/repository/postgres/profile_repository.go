package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile loads the profile of an authenticated user. A missing profile is
// reported as ErrForbidden: the token is valid but the user is unknown here.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var (
		p                domain.Profile
		fullName, garage sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, email, full_name, active_garage_id
FROM profiles
WHERE id = $1
`, userID).Scan(&p.UserID, &p.Email, &fullName, &garage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrForbidden, "get profile", fmt.Errorf("user_id=%s", userID))
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.FullName = fullName.String
	p.ActiveGarageID = garage.String
	return &p, nil
}
