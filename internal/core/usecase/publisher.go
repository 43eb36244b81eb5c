package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/ports"
)

const (
	DefaultArtifactBucket = "claim-photos"
	pdfContentType        = "application/pdf"
)

// ArtifactPublisher uploads generated reports and resolves their public URL.
type ArtifactPublisher struct {
	storage ports.ObjectStorage
	bucket  string
}

func NewArtifactPublisher(storage ports.ObjectStorage, bucket string) *ArtifactPublisher {
	if strings.TrimSpace(bucket) == "" {
		bucket = DefaultArtifactBucket
	}
	return &ArtifactPublisher{storage: storage, bucket: bucket}
}

// ArtifactPath is the storage key of a claim report.
func ArtifactPath(garageID, claimID, filename string) string {
	return "pdfs/" + garageID + "/" + claimID + "/" + filename
}

// Publish writes pdf at the claim's deterministic path, replacing any previous
// object, and returns its public URL.
func (p *ArtifactPublisher) Publish(ctx context.Context, pdf []byte, garageID, claimID, filename string) (string, error) {
	if len(pdf) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "publish artifact", errors.New("empty pdf"))
	}
	for name, v := range map[string]string{"garage_id": garageID, "claim_id": claimID, "filename": filename} {
		if strings.TrimSpace(v) == "" || strings.ContainsAny(v, `/\`) || v == "." || v == ".." {
			return "", domain.WrapError(domain.ErrInvalidInput, "publish artifact", fmt.Errorf("invalid %s %q", name, v))
		}
	}

	key := ArtifactPath(garageID, claimID, filename)
	if _, err := p.storage.Upload(ctx, p.bucket, key, pdf, pdfContentType); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return p.storage.PublicURL(p.bucket, key), nil
}
