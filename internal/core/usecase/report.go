package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/ports"
	"github.com/kirillkom/visiocar/internal/core/reporting"
)

const reportGeneratedDescription = "Rapport PDF généré"

type ReportSettings struct {
	Assembly reporting.Options
	// Strategy labels metrics and logs with the rasterizer in use.
	Strategy string
}

// ReportUseCase runs the claim report pipeline: assemble, render, rasterize,
// publish, then record the outcome on the claim. Steps run strictly in order
// and nothing is retried.
type ReportUseCase struct {
	claims     ports.ClaimRepository
	garages    ports.GarageRepository
	history    ports.HistoryRepository
	rasterizer ports.PDFRasterizer
	publisher  *ArtifactPublisher
	events     ports.ReportEventPublisher
	metrics    ports.ReportMetrics
	settings   ReportSettings
}

func NewReportUseCase(
	claims ports.ClaimRepository,
	garages ports.GarageRepository,
	history ports.HistoryRepository,
	rasterizer ports.PDFRasterizer,
	publisher *ArtifactPublisher,
	events ports.ReportEventPublisher,
	metrics ports.ReportMetrics,
	settings ReportSettings,
) *ReportUseCase {
	if settings.Strategy == "" {
		settings.Strategy = "local"
	}
	if settings.Assembly.Now == nil {
		settings.Assembly.Now = time.Now
	}
	return &ReportUseCase{
		claims:     claims,
		garages:    garages,
		history:    history,
		rasterizer: rasterizer,
		publisher:  publisher,
		events:     events,
		metrics:    metrics,
		settings:   settings,
	}
}

func (uc *ReportUseCase) Generate(ctx context.Context, actor domain.Actor, claimID string) (*domain.GeneratedReport, error) {
	start := time.Now()
	report, garageID, err := uc.run(ctx, actor, claimID)
	duration := time.Since(start)

	size := 0
	if report != nil {
		size = report.SizeBytes
	}
	if uc.metrics != nil {
		uc.metrics.ObserveReport(uc.settings.Strategy, duration, size, err)
	}

	if err != nil {
		slog.Error("report_generation_failed",
			"claim_id", claimID,
			"garage_id", actor.GarageID,
			"strategy", uc.settings.Strategy,
			"duration_ms", float64(duration.Microseconds())/1000.0,
			"error", err,
		)
		return nil, err
	}

	slog.Info("report_generated",
		"claim_id", report.ClaimID,
		"garage_id", garageID,
		"reference", report.Reference,
		"bytes", report.SizeBytes,
		"strategy", uc.settings.Strategy,
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)
	uc.notify(ctx, actor, garageID, report)
	return report, nil
}

func (uc *ReportUseCase) run(ctx context.Context, actor domain.Actor, claimID string) (*domain.GeneratedReport, string, error) {
	claim, err := loadOwnedClaim(ctx, uc.claims, actor, claimID, "generate report")
	if err != nil {
		return nil, "", err
	}

	garage, err := uc.garages.GetByID(ctx, claim.GarageID)
	if err != nil {
		return nil, "", fmt.Errorf("load garage: %w", err)
	}

	vm := reporting.Assemble(claim, garage, uc.settings.Assembly)
	html, err := reporting.Render(vm)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrPDFGeneration, "render report", err)
	}

	pdf, err := uc.rasterizer.Rasterize(ctx, html, vm.Reference)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrPDFGeneration, "rasterize report", err)
	}
	if len(pdf) == 0 {
		return nil, "", domain.WrapError(domain.ErrPDFGeneration, "rasterize report", fmt.Errorf("empty output"))
	}

	filename := reporting.Filename(vm)
	url, err := uc.publisher.Publish(ctx, pdf, claim.GarageID, claim.ID, filename)
	if err != nil {
		return nil, "", fmt.Errorf("publish report: %w", err)
	}

	completedAt := uc.settings.Assembly.Now().UTC()
	if err := uc.claims.MarkCompleted(ctx, claim.ID, url, completedAt); err != nil {
		return nil, "", fmt.Errorf("mark claim completed: %w", err)
	}

	entry := &domain.HistoryEntry{
		ID:          uuid.NewString(),
		ClaimID:     claim.ID,
		Action:      domain.HistoryActionPDFGenerated,
		Description: reportGeneratedDescription,
		UserName:    actor.DisplayName(),
		UserEmail:   actor.Email,
		CreatedAt:   completedAt,
	}
	if err := uc.history.Append(ctx, entry); err != nil {
		return nil, "", fmt.Errorf("append report history: %w", err)
	}

	return &domain.GeneratedReport{
		ClaimID:   claim.ID,
		Reference: vm.Reference,
		Filename:  filename,
		PDFURL:    url,
		SizeBytes: len(pdf),
		CreatedAt: completedAt,
	}, claim.GarageID, nil
}

func (uc *ReportUseCase) notify(ctx context.Context, actor domain.Actor, garageID string, report *domain.GeneratedReport) {
	if uc.events == nil {
		return
	}
	event := domain.ReportGeneratedEvent{
		ClaimID:     report.ClaimID,
		GarageID:    garageID,
		Reference:   report.Reference,
		Filename:    report.Filename,
		PDFURL:      report.PDFURL,
		GeneratedBy: actor.Email,
		GeneratedAt: report.CreatedAt,
	}
	if err := uc.events.PublishReportGenerated(ctx, event); err != nil {
		slog.Warn("report_event_publish_failed", "claim_id", report.ClaimID, "error", err)
	}
}

// loadOwnedClaim hides claims of other garages behind ErrClaimNotFound.
func loadOwnedClaim(ctx context.Context, repo ports.ClaimRepository, actor domain.Actor, claimID, operation string) (*domain.Claim, error) {
	if claimID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, fmt.Errorf("claim id is required"))
	}
	claim, err := repo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if actor.GarageID == "" || claim.GarageID != actor.GarageID {
		return nil, domain.WrapError(domain.ErrClaimNotFound, operation, fmt.Errorf("claim_id=%s", claimID))
	}
	return claim, nil
}
