package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

// ClaimRepository persists and reads claims.
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.Claim) error
	GetByID(ctx context.Context, id string) (*domain.Claim, error)
	List(ctx context.Context, garageID string, filter domain.ClaimFilter) ([]domain.Claim, error)
	Update(ctx context.Context, claim *domain.Claim) error
	MarkCompleted(ctx context.Context, id, pdfURL string, completedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// GarageRepository reads tenant records and stores their branding.
type GarageRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Garage, error)
	UpdateBranding(ctx context.Context, garage *domain.Garage) error
}

// HistoryRepository is the append-only claim audit log.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByClaim(ctx context.Context, claimID string) ([]domain.HistoryEntry, error)
}

// ProfileRepository resolves the active garage of a user.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// ObjectStorage stores published artifacts. Upload overwrites any existing
// object at the same path.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	PublicURL(bucket, path string) string
}

// PDFRasterizer turns a self-contained HTML document into PDF bytes.
type PDFRasterizer interface {
	Rasterize(ctx context.Context, html, reference string) ([]byte, error)
}

// ReportEventPublisher announces published reports to other services.
type ReportEventPublisher interface {
	PublishReportGenerated(ctx context.Context, event domain.ReportGeneratedEvent) error
}

// ReportMetrics records report pipeline outcomes.
type ReportMetrics interface {
	ObserveReport(strategy string, duration time.Duration, sizeBytes int, err error)
}

// ClaimExporter writes a tabular export of claims.
type ClaimExporter interface {
	ContentType() string
	Export(w io.Writer, claims []domain.Claim) error
}

// TokenVerifier validates a bearer token and returns the user id and email.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID, email string, err error)
}
