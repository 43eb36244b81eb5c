package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO claim_history (id, claim_id, action, description, user_name, user_email, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, entry.ID, entry.ClaimID, entry.Action, entry.Description,
		nullableString(entry.UserName), nullableString(entry.UserEmail), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert claim history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByClaim(ctx context.Context, claimID string) ([]domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, claim_id, action, description, user_name, user_email, created_at
FROM claim_history
WHERE claim_id = $1
ORDER BY created_at DESC
`, claimID)
	if err != nil {
		return nil, fmt.Errorf("list claim history: %w", err)
	}
	defer rows.Close()

	out := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim history: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim history: %w", err)
	}
	return out, nil
}

func scanHistoryEntry(row rowScanner) (domain.HistoryEntry, error) {
	var (
		entry           domain.HistoryEntry
		userName, email sql.NullString
	)
	if err := row.Scan(&entry.ID, &entry.ClaimID, &entry.Action, &entry.Description, &userName, &email, &entry.CreatedAt); err != nil {
		return domain.HistoryEntry{}, err
	}
	entry.UserName = userName.String
	entry.UserEmail = email.String
	return entry, nil
}
