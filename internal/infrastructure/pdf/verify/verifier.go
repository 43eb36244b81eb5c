package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/ports"
)

var pdfMagic = []byte("%PDF-")

// Rasterizer checks the output of another rasterizer before it is published
// and optionally compacts it.
type Rasterizer struct {
	next     ports.PDFRasterizer
	optimize bool
}

func New(next ports.PDFRasterizer, optimize bool) *Rasterizer {
	return &Rasterizer{next: next, optimize: optimize}
}

func (r *Rasterizer) Rasterize(ctx context.Context, html, reference string) ([]byte, error) {
	out, err := r.next.Rasterize(ctx, html, reference)
	if err != nil {
		return nil, err
	}
	pages, err := PageCount(out)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPDFGeneration, "verify pdf", err)
	}
	if !r.optimize {
		return out, nil
	}

	optimized, err := Optimize(out)
	if err != nil {
		slog.Warn("pdf_optimize_failed", "reference", reference, "error", err)
		return out, nil
	}
	slog.Debug("pdf_optimized", "reference", reference, "pages", pages, "bytes_before", len(out), "bytes_after", len(optimized))
	return optimized, nil
}

// PageCount parses data as a PDF document and returns its number of pages.
func PageCount(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, errors.New("empty pdf output")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return 0, errors.New("output is not a pdf document")
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	n = reader.NumPage()
	if n < 1 {
		return 0, errors.New("pdf has no pages")
	}
	return n, nil
}

// Optimize rewrites data with pdfcpu, removing redundant objects.
func Optimize(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("optimize pdf: %w", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pdfMagic) {
		return nil, errors.New("optimize pdf: invalid output")
	}
	return buf.Bytes(), nil
}
