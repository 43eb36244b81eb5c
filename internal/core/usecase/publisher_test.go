package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

func TestPublishIsIdempotentPerPath(t *testing.T) {
	storage := newStorageFake()
	p := NewArtifactPublisher(storage, "reports")

	first, err := p.Publish(context.Background(), []byte("v1"), "g", "c", "Report_X_2025-01-01.pdf")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	second, err := p.Publish(context.Background(), []byte("v2"), "g", "c", "Report_X_2025-01-01.pdf")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if first != second {
		t.Fatalf("expected stable url, got %q and %q", first, second)
	}
	if len(storage.objects) != 1 || string(storage.objects["reports/pdfs/g/c/Report_X_2025-01-01.pdf"]) != "v2" {
		t.Fatalf("expected one overwritten object, got %v", storage.objects)
	}
}

func TestPublishRejectsUnsafeSegments(t *testing.T) {
	p := NewArtifactPublisher(newStorageFake(), "")
	cases := []struct{ garage, claim, file string }{
		{"", "c", "f.pdf"},
		{"g", "../c", "f.pdf"},
		{"g", "c", ".."},
	}
	for _, tc := range cases {
		if _, err := p.Publish(context.Background(), []byte("x"), tc.garage, tc.claim, tc.file); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", tc, err)
		}
	}
	if _, err := p.Publish(context.Background(), nil, "g", "c", "f.pdf"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty pdf")
	}
}
