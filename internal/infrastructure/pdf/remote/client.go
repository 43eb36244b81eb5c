package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/reporting"
	pdflayout "github.com/kirillkom/visiocar/internal/infrastructure/pdf"
	"github.com/kirillkom/visiocar/internal/infrastructure/resilience"
)

const (
	convertPath    = "/forms/chromium/convert/html"
	maxErrorBody   = 2048
	maxPDFBodySize = 64 << 20
)

// Client delegates rasterization to a Gotenberg-compatible HTTP service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) Rasterize(ctx context.Context, html, reference string) ([]byte, error) {
	out, err := resilience.Call(ctx, c.executor, "pdf.remote.convert", func(ctx context.Context) ([]byte, error) {
		return c.convert(ctx, html, reference)
	}, resilience.ClassifyRemote)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPDFGeneration, "remote rasterize", resilience.WrapTemporary("pdf remote convert", err, resilience.ClassifyRemote))
	}
	return out, nil
}

func (c *Client) convert(ctx context.Context, html, reference string) ([]byte, error) {
	body, contentType, err := buildForm(html)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, body)
	if err != nil {
		return nil, fmt.Errorf("build convert request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if reference != "" {
		stem := reporting.FileStem(reference)
		req.Header.Set("Gotenberg-Output-Filename", stem)
		req.Header.Set("Gotenberg-Trace", stem)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("convert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &resilience.HTTPStatusError{
			Service:    "pdf",
			Operation:  "convert",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(msg),
		}
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read convert response: %w", err)
	}
	if len(out) > maxPDFBodySize {
		return nil, fmt.Errorf("convert response exceeds %d bytes", maxPDFBodySize)
	}
	return out, nil
}

func buildForm(html string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", fmt.Errorf("create html part: %w", err)
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, "", fmt.Errorf("write html part: %w", err)
	}

	margin := formatInches(pdflayout.MarginInches)
	fields := [][2]string{
		{"paperWidth", formatInches(pdflayout.PaperWidthInches)},
		{"paperHeight", formatInches(pdflayout.PaperHeightInches)},
		{"marginTop", margin},
		{"marginBottom", margin},
		{"marginLeft", margin},
		{"marginRight", margin},
		{"printBackground", "true"},
		{"waitDelay", "500ms"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
