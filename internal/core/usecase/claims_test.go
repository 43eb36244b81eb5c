package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

func newClaimUseCase(claims *claimRepoFake, history *historyRepoFake) *ClaimUseCase {
	uc := NewClaimUseCase(claims, history, &exporterFake{})
	uc.now = func() time.Time { return time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC) }
	return uc
}

func TestCreateClaimStartsAsDraftWithHistory(t *testing.T) {
	repo := newClaimRepoFake()
	history := &historyRepoFake{}
	uc := newClaimUseCase(repo, history)

	claim, err := uc.Create(context.Background(), actor, domain.ClaimInput{
		Vehicle: &domain.Vehicle{Brand: "Peugeot", Model: "208", Year: 2021, VIN: "vf3abcdefgh123456"},
		Client:  &domain.Client{Name: "Paul Martin", Email: "paul@example.com"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if claim.Status != domain.ClaimStatusDraft || claim.GarageID != "garage-1" || claim.ID == "" {
		t.Fatalf("unexpected claim %+v", claim)
	}
	if len(history.entries) != 1 || history.entries[0].Action != "claim_created" || history.entries[0].Description != "Dossier créé" {
		t.Fatalf("unexpected history %+v", history.entries)
	}
}

func TestCreateClaimValidatesFields(t *testing.T) {
	uc := newClaimUseCase(newClaimRepoFake(), &historyRepoFake{})

	_, err := uc.Create(context.Background(), actor, domain.ClaimInput{
		Vehicle: &domain.Vehicle{Year: 1850, VIN: "IOQ"},
		Client:  &domain.Client{Name: "J", Email: "not-an-email"},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, field := range []string{"vehicle_data.year", "vehicle_data.vin", "client_data.name", "client_data.email"} {
		if verr.Fields[field] == "" {
			t.Fatalf("expected message for %s, got %v", field, verr.Fields)
		}
	}
}

func TestUpdateKeepsStatusAndRejectsCompleted(t *testing.T) {
	repo := newClaimRepoFake(&domain.Claim{ID: "c1", GarageID: "garage-1", Status: domain.ClaimStatusAnalyzing})
	history := &historyRepoFake{}
	uc := newClaimUseCase(repo, history)

	updated, err := uc.Update(context.Background(), actor, "c1", domain.ClaimInput{
		Client: &domain.Client{Name: "Nouvelle Cliente"},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != domain.ClaimStatusAnalyzing || updated.Client.Name != "Nouvelle Cliente" {
		t.Fatalf("edit must not change status, got %+v", updated)
	}
	if len(history.entries) != 1 || history.entries[0].Action != "claim_updated" {
		t.Fatalf("expected claim_updated history")
	}

	completed := domain.ClaimStatusCompleted
	_, err = uc.Update(context.Background(), actor, "c1", domain.ClaimInput{Status: &completed})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput when forcing completed, got %v", err)
	}

	review := domain.ClaimStatusReview
	updated, err = uc.Update(context.Background(), actor, "c1", domain.ClaimInput{Status: &review})
	if err != nil || updated.Status != domain.ClaimStatusReview {
		t.Fatalf("expected explicit status change, got %v / %+v", err, updated)
	}
}

func TestDeleteOnlyDrafts(t *testing.T) {
	repo := newClaimRepoFake(
		&domain.Claim{ID: "draft", GarageID: "garage-1", Status: domain.ClaimStatusDraft},
		&domain.Claim{ID: "done", GarageID: "garage-1", Status: domain.ClaimStatusCompleted},
		&domain.Claim{ID: "foreign", GarageID: "garage-2", Status: domain.ClaimStatusDraft},
	)
	uc := newClaimUseCase(repo, &historyRepoFake{})

	if err := uc.Delete(context.Background(), actor, "done"); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := uc.Delete(context.Background(), actor, "foreign"); !domain.IsKind(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := uc.Delete(context.Background(), actor, "draft"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "draft" {
		t.Fatalf("unexpected deletions %v", repo.deleted)
	}
}

func TestListNormalizesFilter(t *testing.T) {
	repo := newClaimRepoFake()
	uc := newClaimUseCase(repo, &historyRepoFake{})

	if _, err := uc.List(context.Background(), actor, domain.ClaimFilter{Limit: 10000, Search: "  clio "}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lastList.Limit != 500 || repo.lastList.Search != "clio" {
		t.Fatalf("unexpected filter %+v", repo.lastList)
	}
	if _, err := uc.List(context.Background(), actor, domain.ClaimFilter{Status: "bogus"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := uc.List(context.Background(), domain.Actor{}, domain.ClaimFilter{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without garage")
	}
}

func TestExportWritesGarageClaims(t *testing.T) {
	repo := newClaimRepoFake(
		&domain.Claim{ID: "a", GarageID: "garage-1"},
		&domain.Claim{ID: "b", GarageID: "garage-2"},
	)
	uc := newClaimUseCase(repo, &historyRepoFake{})

	var buf bytes.Buffer
	if err := uc.Export(context.Background(), actor, domain.ClaimFilter{}, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.String() != "1" {
		t.Fatalf("expected one exported claim, got %q", buf.String())
	}
	if uc.ExportContentType() != "text/csv" {
		t.Fatalf("unexpected content type")
	}
}

func TestHistoryRequiresOwnership(t *testing.T) {
	repo := newClaimRepoFake(&domain.Claim{ID: "c1", GarageID: "garage-2"})
	uc := newClaimUseCase(repo, &historyRepoFake{})
	if _, err := uc.History(context.Background(), actor, "c1"); !domain.IsKind(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestGarageUpdateAppliesBrandingOnly(t *testing.T) {
	trial := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	repo := garageRepoFake{garages: map[string]*domain.Garage{
		"garage-1": {ID: "garage-1", Name: "Garage Martin", PlanType: "trial", TrialEndsAt: &trial},
	}}
	uc := NewGarageUseCase(repo)

	name := "  Carrosserie du Parc "
	email := " Contact@Parc.FR"
	phone := "+33 4 78 00 00 00"
	garage, err := uc.Update(context.Background(), actor, domain.GarageInput{
		CompanyName: &name,
		Email:       &email,
		Phone:       &phone,
		Address:     &domain.Address{Street: "3 place Bellecour", Zip: "69002", City: " Lyon "},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if garage.CompanyName != "Carrosserie du Parc" || garage.Email != "contact@parc.fr" || garage.Address.City != "Lyon" {
		t.Fatalf("unexpected garage %+v", garage)
	}
	stored := repo.garages["garage-1"]
	if stored.Name != "Garage Martin" || stored.Phone != phone {
		t.Fatalf("unexpected stored garage %+v", stored)
	}
	if stored.PlanType != "trial" || stored.TrialEndsAt == nil || !stored.TrialEndsAt.Equal(trial) {
		t.Fatalf("subscription fields changed: %+v", stored)
	}
}

func TestGarageUpdateValidatesFields(t *testing.T) {
	repo := garageRepoFake{garages: map[string]*domain.Garage{"garage-1": {ID: "garage-1", Name: "Garage Martin"}}}
	uc := NewGarageUseCase(repo)

	name := "G"
	email := "nope"
	phone := "12-34"
	logo := "ftp://logo.example/x.png"
	_, err := uc.Update(context.Background(), actor, domain.GarageInput{
		Name:    &name,
		Email:   &email,
		Phone:   &phone,
		LogoURL: &logo,
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, field := range []string{"name", "company_email", "company_phone", "logo_url"} {
		if verr.Fields[field] == "" {
			t.Fatalf("expected message for %s, got %v", field, verr.Fields)
		}
	}
	if repo.garages["garage-1"].Name != "Garage Martin" {
		t.Fatalf("garage changed after rejected update")
	}
}

func TestGarageUpdateRequiresActiveGarage(t *testing.T) {
	uc := NewGarageUseCase(garageRepoFake{garages: map[string]*domain.Garage{}})
	_, err := uc.Update(context.Background(), domain.Actor{UserID: "u"}, domain.GarageInput{})
	if !errors.Is(err, domain.ErrNoActiveGarage) {
		t.Fatalf("expected ErrNoActiveGarage, got %v", err)
	}
}
