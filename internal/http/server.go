// Package http serves the subscription tracker as a JSON API, with CSV, PDF
// and printable HTML downloads, health probes and Prometheus metrics.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/services"
	"subtrack/internal/settings"
)

const (
	readHeaderTimeout = 10 * time.Second
	readyTimeout      = 2 * time.Second
)

// Options carries the server's collaborators. Subscriptions and Settings
// are required.
type Options struct {
	Subscriptions *services.SubscriptionService
	Settings      *settings.Store
	Metrics       *metrics.Collector
	Logger        *log.Logger
	// Ready reports whether storage is reachable. Nil means always ready.
	Ready func(context.Context) error
	// RateLimitPerMinute bounds mutating requests per client address.
	RateLimitPerMinute int
	// TrustedProxies may set X-Forwarded-For. Empty means loopback and
	// private ranges.
	TrustedProxies []string
}

type Server struct {
	http.Server
	subs     *services.SubscriptionService
	settings *settings.Store
	metrics  *metrics.Collector
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Subscriptions == nil || opts.Settings == nil {
		return nil, fmt.Errorf("http: subscriptions and settings are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	ips, err := security.NewIPResolver(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}

	s := &Server{
		subs:     opts.Subscriptions,
		settings: opts.Settings,
		metrics:  opts.Metrics,
		ready:    opts.Ready,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}

	mux := http.NewServeMux()
	s.route(mux, "GET /api/subscriptions", s.handleListSubscriptions)
	s.route(mux, "POST /api/subscriptions", s.handleCreateSubscription)
	s.route(mux, "DELETE /api/subscriptions", s.handleClearSubscriptions)
	s.route(mux, "GET /api/subscriptions/{id}", s.handleGetSubscription)
	s.route(mux, "PATCH /api/subscriptions/{id}", s.handleUpdateSubscription)
	s.route(mux, "DELETE /api/subscriptions/{id}", s.handleDeleteSubscription)
	s.route(mux, "GET /api/subscriptions/{id}/document", s.handleDocument)
	s.route(mux, "GET /api/subscriptions/{id}/pdf", s.handlePDF)
	s.route(mux, "GET /api/export.csv", s.handleExportCSV)
	s.route(mux, "GET /api/dashboard", s.handleDashboard)
	s.route(mux, "GET /api/settings", s.handleGetSettings)
	s.route(mux, "PUT /api/settings", s.handleSaveSettings)
	s.route(mux, "PUT /api/settings/notifications", s.handleSetNotifications)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	var handler http.Handler = mux
	handler = s.limiter.Middleware(ips.ClientIP, ratelimit.Mutating, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, ips.ClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

// route registers h under pattern and records request metrics labelled
// with the pattern's path.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	_, path, _ := strings.Cut(pattern, " ")
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
	}))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordRateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, please try again later"})
}

// Shutdown stops the rate limiter and then the HTTP server. Only the first
// call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
