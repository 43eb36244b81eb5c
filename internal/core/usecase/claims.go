package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
	exportLimit      = 5000

	claimCreatedDescription = "Dossier créé"
	claimUpdatedDescription = "Dossier modifié"
)

type ClaimUseCase struct {
	claims   ports.ClaimRepository
	history  ports.HistoryRepository
	exporter ports.ClaimExporter
	now      func() time.Time
}

func NewClaimUseCase(
	claims ports.ClaimRepository,
	history ports.HistoryRepository,
	exporter ports.ClaimExporter,
) *ClaimUseCase {
	return &ClaimUseCase{
		claims:   claims,
		history:  history,
		exporter: exporter,
		now:      time.Now,
	}
}

func (uc *ClaimUseCase) List(ctx context.Context, actor domain.Actor, filter domain.ClaimFilter) ([]domain.Claim, error) {
	if actor.GarageID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list claims", domain.ErrNoActiveGarage)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list claims", fmt.Errorf("unknown status %q", filter.Status))
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	claims, err := uc.claims.List(ctx, actor.GarageID, filter)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

func (uc *ClaimUseCase) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Claim, error) {
	return loadOwnedClaim(ctx, uc.claims, actor, id, "get claim")
}

func (uc *ClaimUseCase) Create(ctx context.Context, actor domain.Actor, input domain.ClaimInput) (*domain.Claim, error) {
	if actor.GarageID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create claim", domain.ErrNoActiveGarage)
	}
	now := uc.now().UTC()
	if err := validateClaimInput(input, now); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create claim", err)
	}

	claim := &domain.Claim{
		ID:        uuid.NewString(),
		GarageID:  actor.GarageID,
		Status:    domain.ClaimStatusDraft,
		Photos:    []domain.Photo{},
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(claim)

	if err := uc.claims.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}
	if err := uc.appendHistory(ctx, actor, claim.ID, domain.HistoryActionClaimCreated, claimCreatedDescription, now); err != nil {
		return nil, err
	}
	return claim, nil
}

// Update applies a partial edit. Edits never change the status implicitly, and
// completed is only reachable through report generation.
func (uc *ClaimUseCase) Update(ctx context.Context, actor domain.Actor, id string, input domain.ClaimInput) (*domain.Claim, error) {
	now := uc.now().UTC()
	if err := validateClaimInput(input, now); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update claim", err)
	}
	if input.Status != nil && *input.Status == domain.ClaimStatusCompleted {
		verr := &domain.ValidationError{}
		verr.Add("status", "Claims are completed by generating the report")
		return nil, domain.WrapError(domain.ErrInvalidInput, "update claim", verr)
	}

	claim, err := loadOwnedClaim(ctx, uc.claims, actor, id, "update claim")
	if err != nil {
		return nil, err
	}

	input.Apply(claim)
	if input.Status != nil {
		claim.Status = *input.Status
		if claim.Status != domain.ClaimStatusCompleted {
			claim.CompletedAt = nil
		}
	}
	claim.UpdatedAt = now

	if err := uc.claims.Update(ctx, claim); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	if err := uc.appendHistory(ctx, actor, claim.ID, domain.HistoryActionClaimUpdated, claimUpdatedDescription, now); err != nil {
		return nil, err
	}
	return claim, nil
}

func (uc *ClaimUseCase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	claim, err := loadOwnedClaim(ctx, uc.claims, actor, id, "delete claim")
	if err != nil {
		return err
	}
	if claim.Status != domain.ClaimStatusDraft {
		return domain.WrapError(domain.ErrForbidden, "delete claim", errors.New("only draft claims can be deleted"))
	}
	if err := uc.claims.Delete(ctx, claim.ID); err != nil {
		return fmt.Errorf("delete claim: %w", err)
	}
	return nil
}

func (uc *ClaimUseCase) History(ctx context.Context, actor domain.Actor, id string) ([]domain.HistoryEntry, error) {
	claim, err := loadOwnedClaim(ctx, uc.claims, actor, id, "claim history")
	if err != nil {
		return nil, err
	}
	entries, err := uc.history.ListByClaim(ctx, claim.ID)
	if err != nil {
		return nil, fmt.Errorf("list claim history: %w", err)
	}
	return entries, nil
}

func (uc *ClaimUseCase) Export(ctx context.Context, actor domain.Actor, filter domain.ClaimFilter, w io.Writer) error {
	if uc.exporter == nil {
		return errors.New("claim export is not configured")
	}
	if actor.GarageID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "export claims", domain.ErrNoActiveGarage)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "export claims", fmt.Errorf("unknown status %q", filter.Status))
	}
	filter.Limit = exportLimit

	claims, err := uc.claims.List(ctx, actor.GarageID, filter)
	if err != nil {
		return fmt.Errorf("list claims for export: %w", err)
	}
	if err := uc.exporter.Export(w, claims); err != nil {
		return fmt.Errorf("export claims: %w", err)
	}
	return nil
}

func (uc *ClaimUseCase) ExportContentType() string {
	if uc.exporter == nil {
		return "application/octet-stream"
	}
	return uc.exporter.ContentType()
}

func (uc *ClaimUseCase) appendHistory(ctx context.Context, actor domain.Actor, claimID, action, description string, at time.Time) error {
	entry := &domain.HistoryEntry{
		ID:          uuid.NewString(),
		ClaimID:     claimID,
		Action:      action,
		Description: description,
		UserName:    actor.DisplayName(),
		UserEmail:   actor.Email,
		CreatedAt:   at,
	}
	if err := uc.history.Append(ctx, entry); err != nil {
		return fmt.Errorf("append %s history: %w", action, err)
	}
	return nil
}

type GarageUseCase struct {
	garages ports.GarageRepository
}

func NewGarageUseCase(garages ports.GarageRepository) *GarageUseCase {
	return &GarageUseCase{garages: garages}
}

func (uc *GarageUseCase) Get(ctx context.Context, actor domain.Actor) (*domain.Garage, error) {
	if actor.GarageID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get garage", domain.ErrNoActiveGarage)
	}
	return uc.garages.GetByID(ctx, actor.GarageID)
}

// Update edits the branding printed on reports. Plan and trial fields stay
// read-only.
func (uc *GarageUseCase) Update(ctx context.Context, actor domain.Actor, input domain.GarageInput) (*domain.Garage, error) {
	if actor.GarageID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update garage", domain.ErrNoActiveGarage)
	}
	if err := validateGarageInput(input); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update garage", err)
	}

	garage, err := uc.garages.GetByID(ctx, actor.GarageID)
	if err != nil {
		return nil, err
	}
	if input.Empty() {
		return garage, nil
	}

	input.Apply(garage)
	if err := uc.garages.UpdateBranding(ctx, garage); err != nil {
		return nil, fmt.Errorf("update garage: %w", err)
	}
	return garage, nil
}
