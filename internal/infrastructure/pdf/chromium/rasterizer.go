package chromium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/kirillkom/visiocar/internal/core/domain"
	pdflayout "github.com/kirillkom/visiocar/internal/infrastructure/pdf"
)

const readinessScript = `document.readyState === "complete" && Array.from(document.images).every(function (img) { return img.complete; })`

type Config struct {
	// ExecPath overrides the Chrome binary; empty uses the chromedp lookup.
	ExecPath    string
	LoadTimeout time.Duration
	Timeout     time.Duration
}

func (c Config) normalize() Config {
	out := c
	if out.LoadTimeout <= 0 {
		out.LoadTimeout = 30 * time.Second
	}
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	if out.Timeout < out.LoadTimeout {
		out.Timeout = out.LoadTimeout
	}
	return out
}

// Rasterizer prints HTML to PDF with a headless Chrome started for each call.
type Rasterizer struct {
	cfg Config
}

func New(cfg Config) *Rasterizer {
	return &Rasterizer{cfg: cfg.normalize()}
}

func (r *Rasterizer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if strings.TrimSpace(r.cfg.ExecPath) != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ExecPath))
	}
	return opts
}

func (r *Rasterizer) Rasterize(ctx context.Context, html, reference string) ([]byte, error) {
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var out []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		setContent(html),
		waitReady(r.cfg.LoadTimeout),
		printToPDF(&out),
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPDFGeneration, "chromium rasterize", err)
	}

	slog.Debug("chromium_rasterized",
		"reference", reference,
		"bytes", len(out),
		"duration_ms", float64(time.Since(started).Microseconds())/1000.0,
	)
	return out, nil
}

func setContent(html string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return fmt.Errorf("get frame tree: %w", err)
		}
		if err := page.SetDocumentContent(tree.Frame.ID, html).Do(ctx); err != nil {
			return fmt.Errorf("set document content: %w", err)
		}
		return nil
	})
}

func waitReady(timeout time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var ready bool
		err := chromedp.Poll(readinessScript, &ready,
			chromedp.WithPollingTimeout(timeout),
			chromedp.WithPollingInterval(100*time.Millisecond),
		).Do(ctx)
		if errors.Is(err, chromedp.ErrPollingTimeout) {
			return fmt.Errorf("document not ready after %s: %w", timeout, err)
		}
		return err
	})
}

func printToPDF(out *[]byte) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(pdflayout.PaperWidthInches).
			WithPaperHeight(pdflayout.PaperHeightInches).
			WithMarginTop(pdflayout.MarginInches).
			WithMarginBottom(pdflayout.MarginInches).
			WithMarginLeft(pdflayout.MarginInches).
			WithMarginRight(pdflayout.MarginInches).
			WithPreferCSSPageSize(false).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("print to pdf: %w", err)
		}
		*out = data
		return nil
	})
}
