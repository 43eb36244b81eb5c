package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

var claimColumnNames = []string{
	"id", "garage_id", "reference", "status", "vehicle_data", "client_data", "insurance_details",
	"ai_report", "manual_adjustments", "images", "pdf_url", "created_by", "created_at", "updated_at", "completed_at",
}

func newClaimRepoWithMock(t *testing.T) (*ClaimRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewClaimRepository(db), mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WithArgs(int64(2025061001)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS garages").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryGetByIDDecodesJSONColumns(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(claimColumnNames).AddRow(
		"c-1", "garage-1", "VWC-2025-000042", "review",
		[]byte(`{"brand":"Peugeot","model":"308","year":"2019","mileage":"45 000"}`),
		[]byte(`{"name":"Jean Dupont"}`),
		[]byte(`{"company":"AXA"}`),
		[]byte(`{"damages":[{"zone":"Avant","severity":"importante","estimated_hours":2.5}]}`),
		nil,
		[]byte(`[{"url":"https://cdn/p1.jpg"}]`),
		nil, "user-1", now, now, nil,
	)
	mock.ExpectQuery("FROM claims WHERE id = \\$1").WithArgs("c-1").WillReturnRows(rows)

	claim, err := repo.GetByID(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if claim.Status != domain.ClaimStatusReview || claim.Reference != "VWC-2025-000042" {
		t.Fatalf("unexpected claim header: %+v", claim)
	}
	if claim.Vehicle.Year.Float() != 2019 || claim.Vehicle.Mileage.Float() != 45000 {
		t.Fatalf("unexpected vehicle numbers: %+v", claim.Vehicle)
	}
	if len(claim.AssessmentDamages()) != 1 || claim.ManualAdjustments != nil {
		t.Fatalf("unexpected damages: ai=%+v adj=%+v", claim.AIReport, claim.ManualAdjustments)
	}
	if len(claim.Photos) != 1 || claim.CompletedAt != nil || claim.PDFURL != "" {
		t.Fatalf("unexpected claim tail: %+v", claim)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryGetByIDMapsNoRowsToNotFound(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM claims").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestClaimRepositoryListBuildsFilters(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM claims WHERE garage_id = \\$1 AND status = \\$2 AND \\(reference ILIKE \\$3").
		WithArgs("garage-1", "review", `%a\_b%`, 50).
		WillReturnRows(sqlmock.NewRows(claimColumnNames))

	claims, err := repo.List(context.Background(), "garage-1", domain.ClaimFilter{
		Status: domain.ClaimStatusReview,
		Search: "a_b",
		Limit:  50,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if claims == nil || len(claims) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", claims)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryMarkCompleted(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE claims").
		WithArgs("c-1", "https://cdn/r.pdf", "completed", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkCompleted(context.Background(), "c-1", "https://cdn/r.pdf", at); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryMarkCompletedReturnsNotFoundWhenNoRows(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	mock.ExpectExec("UPDATE claims").
		WithArgs("missing", "u", "completed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCompleted(context.Background(), "missing", "u", time.Now())
	if !errors.Is(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestClaimRepositoryDeleteOnlyTouchesDrafts(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM claims WHERE id = \\$1 AND status = \\$2").
		WithArgs("c-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "c-1")
	if !errors.Is(err, domain.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimRepositoryCreateStoresEmptyImagesArray(t *testing.T) {
	repo, mock, cleanup := newClaimRepoWithMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectExec("INSERT INTO claims").
		WithArgs("c-1", "garage-1", nil, "draft",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil, nil, []byte("[]"), nil, "user-1", now, now, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.Claim{
		ID:        "c-1",
		GarageID:  "garage-1",
		Status:    domain.ClaimStatusDraft,
		CreatedBy: "user-1",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
