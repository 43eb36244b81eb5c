package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/visiocar/internal/core/domain"
)

// ReportMetrics records report pipeline outcomes per rasterizer strategy.
type ReportMetrics struct {
	service string

	reportTotal    *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	reportSize     *prometheus.HistogramVec
}

func NewReportMetrics(registerer prometheus.Registerer, service string) *ReportMetrics {
	reportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generation_total",
			Help:      "Total report generations by strategy and outcome.",
		},
		[]string{"service", "strategy", "status"},
	)
	reportDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generation_duration_seconds",
			Help:      "End-to-end report generation duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 60},
		},
		[]string{"service", "strategy", "status"},
	)
	reportSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "pdf_size_bytes",
			Help:      "Size of published report PDFs.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 10),
		},
		[]string{"service", "strategy"},
	)

	registerer.MustRegister(reportTotal, reportDuration, reportSize)

	return &ReportMetrics{
		service:        service,
		reportTotal:    reportTotal,
		reportDuration: reportDuration,
		reportSize:     reportSize,
	}
}

func (m *ReportMetrics) ObserveReport(strategy string, duration time.Duration, sizeBytes int, err error) {
	if strategy == "" {
		strategy = "unknown"
	}
	status := reportStatus(err)

	m.reportTotal.WithLabelValues(m.service, strategy, status).Inc()
	m.reportDuration.WithLabelValues(m.service, strategy, status).Observe(duration.Seconds())
	if err == nil && sizeBytes > 0 {
		m.reportSize.WithLabelValues(m.service, strategy).Observe(float64(sizeBytes))
	}
}

func reportStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrClaimNotFound), errors.Is(err, domain.ErrGarageNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPDFGeneration):
		return "pdf_error"
	default:
		return "error"
	}
}
