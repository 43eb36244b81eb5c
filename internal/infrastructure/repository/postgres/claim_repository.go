package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type ClaimRepository struct {
	db *sql.DB
}

func NewClaimRepository(db *sql.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, garage_id, reference, status, vehicle_data, client_data, insurance_details,
	ai_report, manual_adjustments, images, pdf_url, created_by, created_at, updated_at, completed_at`

type claimJSON struct {
	vehicle     []byte
	client      []byte
	insurance   []byte
	aiReport    []byte
	adjustments []byte
	images      []byte
}

func marshalClaimJSON(c *domain.Claim) (claimJSON, error) {
	var out claimJSON
	var err error
	if out.vehicle, err = json.Marshal(c.Vehicle); err != nil {
		return out, fmt.Errorf("marshal vehicle_data: %w", err)
	}
	if out.client, err = json.Marshal(c.Client); err != nil {
		return out, fmt.Errorf("marshal client_data: %w", err)
	}
	if out.insurance, err = json.Marshal(c.Insurance); err != nil {
		return out, fmt.Errorf("marshal insurance_details: %w", err)
	}
	if c.AIReport != nil {
		if out.aiReport, err = json.Marshal(c.AIReport); err != nil {
			return out, fmt.Errorf("marshal ai_report: %w", err)
		}
	}
	if c.ManualAdjustments != nil {
		if out.adjustments, err = json.Marshal(c.ManualAdjustments); err != nil {
			return out, fmt.Errorf("marshal manual_adjustments: %w", err)
		}
	}
	photos := c.Photos
	if photos == nil {
		photos = []domain.Photo{}
	}
	if out.images, err = json.Marshal(photos); err != nil {
		return out, fmt.Errorf("marshal images: %w", err)
	}
	return out, nil
}

func (r *ClaimRepository) Create(ctx context.Context, c *domain.Claim) error {
	js, err := marshalClaimJSON(c)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO claims (`+claimColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		c.ID, c.GarageID, nullableString(c.Reference), string(c.Status), js.vehicle, js.client, js.insurance,
		nullableJSON(js.aiReport), nullableJSON(js.adjustments), js.images, nullableString(c.PDFURL), nullableString(c.CreatedBy),
		c.CreatedAt, c.UpdatedAt, c.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClaimNotFound, "get claim", fmt.Errorf("claim_id=%s", id))
		}
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	return &claim, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ClaimRepository) List(ctx context.Context, garageID string, filter domain.ClaimFilter) ([]domain.Claim, error) {
	var b strings.Builder
	args := []any{garageID}
	b.WriteString(`SELECT ` + claimColumns + ` FROM claims WHERE garage_id = $1`)

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		b.WriteString(` AND status = $` + strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		p := "$" + strconv.Itoa(len(args))
		b.WriteString(` AND (reference ILIKE ` + p +
			` OR vehicle_data->>'brand' ILIKE ` + p +
			` OR vehicle_data->>'model' ILIKE ` + p +
			` OR vehicle_data->>'plate' ILIKE ` + p +
			` OR client_data->>'name' ILIKE ` + p + `)`)
	}
	b.WriteString(` ORDER BY created_at DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		b.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

func (r *ClaimRepository) Update(ctx context.Context, c *domain.Claim) error {
	js, err := marshalClaimJSON(c)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE claims
SET reference = $2, status = $3, vehicle_data = $4, client_data = $5, insurance_details = $6,
	ai_report = $7, manual_adjustments = $8, images = $9, completed_at = $10, updated_at = $11
WHERE id = $1
`,
		c.ID, nullableString(c.Reference), string(c.Status), js.vehicle, js.client, js.insurance,
		nullableJSON(js.aiReport), nullableJSON(js.adjustments), js.images, c.CompletedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	return requireRow(result, "update claim", c.ID)
}

// MarkCompleted stores the report URL and flips the claim to completed in a
// single statement.
func (r *ClaimRepository) MarkCompleted(ctx context.Context, id, pdfURL string, completedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE claims
SET pdf_url = $2, status = $3, completed_at = $4, updated_at = $4
WHERE id = $1
`, id, pdfURL, string(domain.ClaimStatusCompleted), completedAt)
	if err != nil {
		return fmt.Errorf("mark claim completed: %w", err)
	}
	return requireRow(result, "mark claim completed", id)
}

func (r *ClaimRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM claims WHERE id = $1 AND status = $2`, id, string(domain.ClaimStatusDraft))
	if err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return requireRow(result, "delete claim", id)
}

func requireRow(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrClaimNotFound, operation, fmt.Errorf("claim_id=%s", id))
	}
	return nil
}

func scanClaim(row rowScanner) (domain.Claim, error) {
	var (
		c                                  domain.Claim
		status                             string
		reference, pdfURL, createdBy       sql.NullString
		vehicle, client, insurance, images []byte
		aiReport, adjustments              []byte
		completedAt                        sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.GarageID, &reference, &status, &vehicle, &client, &insurance,
		&aiReport, &adjustments, &images, &pdfURL, &createdBy, &c.CreatedAt, &c.UpdatedAt, &completedAt,
	)
	if err != nil {
		return domain.Claim{}, err
	}

	c.Status = domain.ClaimStatus(status)
	c.Reference = reference.String
	c.PDFURL = pdfURL.String
	c.CreatedBy = createdBy.String
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}

	for _, field := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"vehicle_data", vehicle, &c.Vehicle},
		{"client_data", client, &c.Client},
		{"insurance_details", insurance, &c.Insurance},
		{"images", images, &c.Photos},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dst); err != nil {
			return domain.Claim{}, fmt.Errorf("unmarshal %s: %w", field.name, err)
		}
	}
	if len(aiReport) > 0 && string(aiReport) != "null" {
		c.AIReport = &domain.AIReport{}
		if err := json.Unmarshal(aiReport, c.AIReport); err != nil {
			return domain.Claim{}, fmt.Errorf("unmarshal ai_report: %w", err)
		}
	}
	if len(adjustments) > 0 && string(adjustments) != "null" {
		c.ManualAdjustments = &domain.ManualAdjustments{}
		if err := json.Unmarshal(adjustments, c.ManualAdjustments); err != nil {
			return domain.Claim{}, fmt.Errorf("unmarshal manual_adjustments: %w", err)
		}
	}
	if c.Photos == nil {
		c.Photos = []domain.Photo{}
	}
	return c, nil
}
