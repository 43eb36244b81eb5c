package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/kirillkom/visiocar/internal/adapters/http"
	"github.com/kirillkom/visiocar/internal/config"
	"github.com/kirillkom/visiocar/internal/core/ports"
	"github.com/kirillkom/visiocar/internal/core/reporting"
	"github.com/kirillkom/visiocar/internal/core/usecase"
	"github.com/kirillkom/visiocar/internal/infrastructure/auth/supabase"
	"github.com/kirillkom/visiocar/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/visiocar/internal/infrastructure/pdf/chromium"
	"github.com/kirillkom/visiocar/internal/infrastructure/pdf/remote"
	"github.com/kirillkom/visiocar/internal/infrastructure/pdf/verify"
	"github.com/kirillkom/visiocar/internal/infrastructure/queue/nats"
	"github.com/kirillkom/visiocar/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/visiocar/internal/infrastructure/resilience"
	"github.com/kirillkom/visiocar/internal/infrastructure/storage/gcs"
	"github.com/kirillkom/visiocar/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/visiocar/internal/infrastructure/storage/s3"
	"github.com/kirillkom/visiocar/internal/observability/metrics"
)

const serviceName = "visiocar-api"

type App struct {
	Config config.Config

	Claims  ports.ClaimService
	Reports ports.ReportGenerator
	Garages ports.GarageService
	Auth    ports.Authenticator

	HTTPMetrics *metrics.HTTPServerMetrics
	// StorageHandler serves local objects; nil for remote buckets.
	StorageHandler http.Handler

	closers []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })
	if cfg.DBAutoMigrate {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.BreakerEnabled = cfg.BreakerEnabled

	storage, err := app.newStorage(ctx, cfg, resilience.NewExecutor(resilienceCfg))
	if err != nil {
		return nil, err
	}
	rasterizer := newRasterizer(cfg, resilience.NewExecutor(resilienceCfg))

	var events ports.ReportEventPublisher
	if cfg.NATSURL != "" {
		// The event follows a completed report, so a retried publish cannot
		// change what the caller already received.
		eventsCfg := resilienceCfg
		eventsCfg.RetryMaxAttempts = cfg.NATSPublishAttempts
		eventsExecutor := resilience.NewExecutor(eventsCfg).WithLogger(slog.Default().With("component", "nats"))
		publisher, err := nats.NewPublisher(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: eventsExecutor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		app.closers = append(app.closers, publisher.Close)
		events = publisher
	}

	location, err := time.LoadLocation(cfg.ReportTimezone)
	if err != nil {
		return nil, fmt.Errorf("load report timezone: %w", err)
	}

	app.HTTPMetrics = metrics.NewHTTPServerMetrics(serviceName)
	reportMetrics := metrics.NewReportMetrics(app.HTTPMetrics.Registerer(), serviceName)

	claimRepo := postgres.NewClaimRepository(db)
	garageRepo := postgres.NewGarageRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	app.Reports = usecase.NewReportUseCase(
		claimRepo,
		garageRepo,
		historyRepo,
		rasterizer,
		usecase.NewArtifactPublisher(storage, cfg.StorageBucket),
		events,
		reportMetrics,
		usecase.ReportSettings{
			Assembly: reporting.Options{
				ReferencePrefix: cfg.ReportReferencePrefix,
				Location:        location,
			},
			Strategy: cfg.PDFStrategy(),
		},
	)
	app.Claims = usecase.NewClaimUseCase(claimRepo, historyRepo, xlsx.NewExporter(location))
	app.Garages = usecase.NewGarageUseCase(garageRepo)
	app.Auth = supabase.NewAuthenticator(supabase.NewVerifier(cfg.JWTSecret, cfg.JWTAudience), profileRepo)

	slog.Info("bootstrap_ready",
		"storage_driver", cfg.StorageDriver,
		"storage_bucket", cfg.StorageBucket,
		"pdf_strategy", cfg.PDFStrategy(),
		"pdf_optimize", cfg.PDFOptimize,
		"events_enabled", events != nil,
	)
	ok = true
	return app, nil
}

// Handler builds the HTTP API for the app.
func (a *App) Handler() (http.Handler, error) {
	router := httpadapter.NewRouter(
		a.Claims,
		a.Reports,
		a.Garages,
		a.Auth,
		a.HTTPMetrics,
		a.StorageHandler,
		httpadapter.Options{
			FrontendURL:     a.Config.FrontendURL,
			RateLimitRPS:    a.Config.RateLimitRPS,
			RateLimitBurst:  a.Config.RateLimitBurst,
			ReportMaxActive: a.Config.ReportMaxConcurrent,
			ReportQueueWait: a.Config.ReportQueueTimeout,
			OpenAPIValidate: a.Config.OpenAPIValidate,
		},
	)
	return router.Handler()
}

func (a *App) newStorage(ctx context.Context, cfg config.Config, executor *resilience.Executor) (ports.ObjectStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		storage, err := s3.New(ctx, s3.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.StoragePublicBaseURL,
		}, executor)
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage, nil
	case config.StorageDriverGCS:
		storage, err := gcs.New(ctx, cfg.GCSCredentialsFile, cfg.StoragePublicBaseURL, executor)
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		a.closers = append(a.closers, func() { _ = storage.Close() })
		return storage, nil
	default:
		storage, err := localfs.New(cfg.StoragePath, cfg.StoragePublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		a.StorageHandler = storage.Handler()
		return storage, nil
	}
}

func newRasterizer(cfg config.Config, executor *resilience.Executor) ports.PDFRasterizer {
	var base ports.PDFRasterizer
	if cfg.PDFUseExternalService {
		base = remote.New(cfg.PDFServiceURL, cfg.PDFTimeout, executor)
	} else {
		base = chromium.New(chromium.Config{
			ExecPath:    cfg.ChromePath,
			LoadTimeout: cfg.PDFLoadTimeout,
			Timeout:     cfg.PDFTimeout,
		})
	}
	return verify.New(base, cfg.PDFOptimize)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

