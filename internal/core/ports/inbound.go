package ports

import (
	"context"
	"io"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

// ReportGenerator is the inbound contract for the claim report pipeline.
type ReportGenerator interface {
	Generate(ctx context.Context, actor domain.Actor, claimID string) (*domain.GeneratedReport, error)
}

// ClaimService is the inbound contract for garage-scoped claim management.
type ClaimService interface {
	List(ctx context.Context, actor domain.Actor, filter domain.ClaimFilter) ([]domain.Claim, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Claim, error)
	Create(ctx context.Context, actor domain.Actor, input domain.ClaimInput) (*domain.Claim, error)
	Update(ctx context.Context, actor domain.Actor, id string, input domain.ClaimInput) (*domain.Claim, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	History(ctx context.Context, actor domain.Actor, id string) ([]domain.HistoryEntry, error)
	Export(ctx context.Context, actor domain.Actor, filter domain.ClaimFilter, w io.Writer) error
	ExportContentType() string
}

// GarageService reads and edits the branding of the caller's garage.
type GarageService interface {
	Get(ctx context.Context, actor domain.Actor) (*domain.Garage, error)
	Update(ctx context.Context, actor domain.Actor, input domain.GarageInput) (*domain.Garage, error)
}

// Authenticator resolves a bearer token into an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Actor, error)
}
