package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kirillkom/visiocar/internal/core/ports"
	"github.com/kirillkom/visiocar/internal/observability/metrics"
)

const (
	maxRequestBodyBytes = 10 << 20
	metricsService      = "visiocar-api"
)

type Options struct {
	FrontendURL     string
	RateLimitRPS    float64
	RateLimitBurst  int
	ReportMaxActive int
	ReportQueueWait time.Duration
	OpenAPIValidate bool
}

type Router struct {
	claims  ports.ClaimService
	reports ports.ReportGenerator
	garages ports.GarageService
	auth    ports.Authenticator
	metrics *metrics.HTTPServerMetrics
	storage http.Handler
	opts    Options
}

// NewRouter wires the API. storage may be nil when objects are served by an
// external bucket.
func NewRouter(
	claims ports.ClaimService,
	reports ports.ReportGenerator,
	garages ports.GarageService,
	auth ports.Authenticator,
	httpMetrics *metrics.HTTPServerMetrics,
	storage http.Handler,
	opts Options,
) *Router {
	return &Router{
		claims:  claims,
		reports: reports,
		garages: garages,
		auth:    auth,
		metrics: httpMetrics,
		storage: storage,
		opts:    opts,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/auth/me", rt.me)
	api.HandleFunc("GET /api/garage", rt.getGarage)
	api.HandleFunc("PATCH /api/garage", rt.updateGarage)
	api.HandleFunc("GET /api/claims", rt.listClaims)
	api.HandleFunc("POST /api/claims", rt.createClaim)
	api.HandleFunc("GET /api/claims/export", rt.exportClaims)
	api.HandleFunc("GET /api/claims/{id}", rt.getClaim)
	api.HandleFunc("PATCH /api/claims/{id}", rt.updateClaim)
	api.HandleFunc("DELETE /api/claims/{id}", rt.deleteClaim)
	api.HandleFunc("GET /api/claims/{id}/history", rt.claimHistory)
	api.Handle("POST /api/claims/{id}/pdf", backpressureMiddleware(
		http.HandlerFunc(rt.generatePDF),
		rt.opts.ReportMaxActive,
		rt.opts.ReportQueueWait,
	))

	var apiHandler http.Handler = authMiddleware(rt.auth, api)
	if rt.opts.OpenAPIValidate {
		validator, err := newRequestValidator()
		if err != nil {
			return nil, err
		}
		apiHandler = validator.middleware(apiHandler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /api/health", rt.healthz)
	mux.Handle("/api/", apiHandler)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	if rt.storage != nil {
		mux.Handle("GET /storage/", rt.storage)
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, handler)
	handler = corsMiddleware(rt.opts.FrontendURL, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(metricsService, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Success: true, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}
