package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kirillkom/visiocar/internal/core/domain"
	"github.com/kirillkom/visiocar/internal/core/ports"
	"github.com/kirillkom/visiocar/internal/core/reporting"
	"github.com/kirillkom/visiocar/internal/infrastructure/pdf/chromium"
	"github.com/kirillkom/visiocar/internal/infrastructure/pdf/remote"
	"github.com/kirillkom/visiocar/internal/infrastructure/pdf/verify"
	"github.com/kirillkom/visiocar/internal/infrastructure/resilience"
)

type renderOptions struct {
	claimPath  string
	garagePath string
	outPath    string
	format     string
	pdfService string
	chromePath string
	optimize   bool
	prefix     string
	timezone   string
	timeout    time.Duration
}

func newRenderCmd() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a claim report from JSON files",
		Long: `Render assembles a report from a claim and a garage stored as JSON, in the
same shape the API returns them, and writes HTML or PDF.

The PDF is printed by a local headless Chrome unless --pdf-service names a
Gotenberg-compatible service.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("pdf-service") && cfg.PDFUseExternalService {
				opts.pdfService = cfg.PDFServiceURL
			}
			if !flags.Changed("chrome") {
				opts.chromePath = cfg.ChromePath
			}
			if !flags.Changed("optimize") {
				opts.optimize = cfg.PDFOptimize
			}
			if !flags.Changed("prefix") {
				opts.prefix = cfg.ReportReferencePrefix
			}
			if !flags.Changed("timezone") {
				opts.timezone = cfg.ReportTimezone
			}
			return runRender(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.claimPath, "claim", "", "Path to the claim JSON file (required)")
	flags.StringVar(&opts.garagePath, "garage", "", "Path to the garage JSON file")
	flags.StringVarP(&opts.outPath, "out", "o", "", "Output file (default: stdout)")
	flags.StringVar(&opts.format, "format", "pdf", "Output format: html|pdf")
	flags.StringVar(&opts.pdfService, "pdf-service", "", "Base URL of a Gotenberg-compatible PDF service")
	flags.StringVar(&opts.chromePath, "chrome", "", "Path to the Chrome binary")
	flags.BoolVar(&opts.optimize, "optimize", false, "Optimize the PDF after printing")
	flags.StringVar(&opts.prefix, "prefix", reporting.DefaultReferencePrefix, "Prefix of generated references")
	flags.StringVar(&opts.timezone, "timezone", "Europe/Paris", "Time zone of report dates")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "PDF generation timeout")
	_ = cmd.MarkFlagRequired("claim")

	return cmd
}

func runRender(cmd *cobra.Command, opts renderOptions) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "html" && format != "pdf" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	var claim domain.Claim
	if err := readJSONFile(opts.claimPath, &claim); err != nil {
		return err
	}
	var garage *domain.Garage
	if opts.garagePath != "" {
		garage = &domain.Garage{}
		if err := readJSONFile(opts.garagePath, garage); err != nil {
			return err
		}
	}

	location, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	vm := reporting.Assemble(&claim, garage, reporting.Options{
		ReferencePrefix: opts.prefix,
		Location:        location,
	})
	html, err := reporting.Render(vm)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	output := []byte(html)
	if format == "pdf" {
		output, err = newCLIRasterizer(opts).Rasterize(cmd.Context(), html, vm.Reference)
		if err != nil {
			return fmt.Errorf("rasterize report: %w", err)
		}
	}

	if err := writeOutput(cmd.OutOrStdout(), opts.outPath, output); err != nil {
		return err
	}
	slog.Info("report_rendered",
		"reference", vm.Reference,
		"filename", reporting.Filename(vm),
		"format", format,
		"bytes", len(output),
	)
	return nil
}

func newCLIRasterizer(opts renderOptions) ports.PDFRasterizer {
	var base ports.PDFRasterizer
	if opts.pdfService != "" {
		base = remote.New(opts.pdfService, opts.timeout, resilience.NewExecutor(resilience.DefaultConfig()))
	} else {
		base = chromium.New(chromium.Config{ExecPath: opts.chromePath, Timeout: opts.timeout})
	}
	return verify.New(base, opts.optimize)
}

func readJSONFile(path string, dst any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
