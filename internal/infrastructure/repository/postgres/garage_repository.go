package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type GarageRepository struct {
	db *sql.DB
}

func NewGarageRepository(db *sql.DB) *GarageRepository {
	return &GarageRepository{db: db}
}

func (r *GarageRepository) GetByID(ctx context.Context, id string) (*domain.Garage, error) {
	var (
		g                      domain.Garage
		companyName, logoURL   sql.NullString
		phone, email, planType sql.NullString
		address                []byte
		trialEndsAt            sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, company_name, logo_url, company_address, company_phone, company_email,
	plan_type, trial_ends_at, is_subscription_active, created_at
FROM garages
WHERE id = $1
`, id).Scan(
		&g.ID, &g.Name, &companyName, &logoURL, &address, &phone, &email,
		&planType, &trialEndsAt, &g.SubscriptionActive, &g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrGarageNotFound, "get garage", fmt.Errorf("garage_id=%s", id))
		}
		return nil, fmt.Errorf("scan garage: %w", err)
	}

	g.CompanyName = companyName.String
	g.LogoURL = logoURL.String
	g.Phone = phone.String
	g.Email = email.String
	g.PlanType = planType.String
	if trialEndsAt.Valid {
		t := trialEndsAt.Time
		g.TrialEndsAt = &t
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &g.Address); err != nil {
			return nil, fmt.Errorf("unmarshal company_address: %w", err)
		}
	}
	return &g, nil
}

// UpdateBranding stores the editable branding columns. Plan and trial columns
// are never written here.
func (r *GarageRepository) UpdateBranding(ctx context.Context, g *domain.Garage) error {
	address, err := json.Marshal(g.Address)
	if err != nil {
		return fmt.Errorf("marshal company_address: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE garages
SET name = $2, company_name = $3, logo_url = $4, company_address = $5, company_phone = $6, company_email = $7
WHERE id = $1
`,
		g.ID, g.Name, nullableString(g.CompanyName), nullableString(g.LogoURL), address,
		nullableString(g.Phone), nullableString(g.Email),
	)
	if err != nil {
		return fmt.Errorf("update garage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update garage rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrGarageNotFound, "update garage", fmt.Errorf("garage_id=%s", g.ID))
	}
	return nil
}
