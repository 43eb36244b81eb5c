package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

type claimRepoFake struct {
	mu        sync.Mutex
	claims    map[string]*domain.Claim
	createErr error
	updateErr error
	markErr   error
	deleted   []string
	lastList  domain.ClaimFilter
	calls     []string
}

func newClaimRepoFake(claims ...*domain.Claim) *claimRepoFake {
	f := &claimRepoFake{claims: make(map[string]*domain.Claim)}
	for _, c := range claims {
		f.claims[c.ID] = c
	}
	return f
}

func (f *claimRepoFake) Create(_ context.Context, claim *domain.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return f.createErr
	}
	copyClaim := *claim
	f.claims[claim.ID] = &copyClaim
	return nil
}

func (f *claimRepoFake) GetByID(_ context.Context, id string) (*domain.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get")
	c, ok := f.claims[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrClaimNotFound, "get claim", fmt.Errorf("claim_id=%s", id))
	}
	copyClaim := *c
	return &copyClaim, nil
}

func (f *claimRepoFake) List(_ context.Context, garageID string, filter domain.ClaimFilter) ([]domain.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	var out []domain.Claim
	for _, c := range f.claims {
		if c.GarageID == garageID && (filter.Status == "" || c.Status == filter.Status) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *claimRepoFake) Update(_ context.Context, claim *domain.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update")
	if f.updateErr != nil {
		return f.updateErr
	}
	copyClaim := *claim
	f.claims[claim.ID] = &copyClaim
	return nil
}

func (f *claimRepoFake) MarkCompleted(_ context.Context, id, pdfURL string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "mark_completed")
	if f.markErr != nil {
		return f.markErr
	}
	c, ok := f.claims[id]
	if !ok {
		return domain.WrapError(domain.ErrClaimNotFound, "mark completed", errors.New(id))
	}
	c.PDFURL = pdfURL
	c.Status = domain.ClaimStatusCompleted
	at := completedAt
	c.CompletedAt = &at
	return nil
}

func (f *claimRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.claims, id)
	return nil
}

type garageRepoFake struct {
	garages map[string]*domain.Garage
}

func (f garageRepoFake) GetByID(_ context.Context, id string) (*domain.Garage, error) {
	g, ok := f.garages[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrGarageNotFound, "get garage", fmt.Errorf("garage_id=%s", id))
	}
	return g, nil
}

func (f garageRepoFake) UpdateBranding(_ context.Context, g *domain.Garage) error {
	if _, ok := f.garages[g.ID]; !ok {
		return domain.WrapError(domain.ErrGarageNotFound, "update garage", fmt.Errorf("garage_id=%s", g.ID))
	}
	stored := *g
	f.garages[g.ID] = &stored
	return nil
}

type historyRepoFake struct {
	entries   []domain.HistoryEntry
	appendErr error
}

func (f *historyRepoFake) Append(_ context.Context, entry *domain.HistoryEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *historyRepoFake) ListByClaim(_ context.Context, claimID string) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for _, e := range f.entries {
		if e.ClaimID == claimID {
			out = append(out, e)
		}
	}
	return out, nil
}

type storageFake struct {
	objects   map[string][]byte
	uploads   int
	uploadErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string][]byte)}
}

func (f *storageFake) Upload(_ context.Context, bucket, path string, data []byte, _ string) (string, error) {
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[bucket+"/"+path] = append([]byte(nil), data...)
	return path, nil
}

func (f *storageFake) PublicURL(bucket, path string) string {
	return "https://storage.example.com/public/" + bucket + "/" + path
}

type rasterizerFake struct {
	out       []byte
	err       error
	html      string
	reference string
	calls     int
}

func (f *rasterizerFake) Rasterize(_ context.Context, html, reference string) ([]byte, error) {
	f.calls++
	f.html = html
	f.reference = reference
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type eventsFake struct {
	events []domain.ReportGeneratedEvent
	err    error
}

func (f *eventsFake) PublishReportGenerated(_ context.Context, event domain.ReportGeneratedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

type metricsFake struct {
	strategies []string
	errs       []error
	sizes      []int
}

func (f *metricsFake) ObserveReport(strategy string, _ time.Duration, size int, err error) {
	f.strategies = append(f.strategies, strategy)
	f.sizes = append(f.sizes, size)
	f.errs = append(f.errs, err)
}

type exporterFake struct {
	exported []domain.Claim
}

func (f *exporterFake) ContentType() string { return "text/csv" }

func (f *exporterFake) Export(w io.Writer, claims []domain.Claim) error {
	f.exported = claims
	_, err := io.WriteString(w, fmt.Sprintf("%d", len(claims)))
	return err
}
