package router

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pricetrack/internal/telemetry"
)

// Handler registers its routes on the shared router.
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

// Router wires handlers behind the shared middleware chain: request id,
// rate limiting, request logging and the request counter.
type Router struct {
	mux      *mux.Router
	limiter  *rate.Limiter
	logger   *zap.Logger
	requests metric.Int64Counter
}

func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	r := &Router{
		mux:     mux.NewRouter(),
		limiter: limiter,
		logger:  logger.Named("router"),
	}

	if tel != nil {
		r.requests, _ = tel.Meter.Int64Counter("pricetrack_http_requests_total",
			metric.WithDescription("Number of HTTP requests handled"))
		r.mux.Handle("/metrics", tel.Handler()).Methods("GET")
	}

	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	r.mux.Use(r.requestIDMiddleware, r.rateLimitMiddleware, r.observeMiddleware)

	for _, h := range handlers {
		h.RegisterRoutes(r.mux, r.logger)
	}
	return r
}

// CreateServer creates an HTTP server for this router
func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := req.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, req)
	})
}

func (r *Router) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.limiter != nil && !r.limiter.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		if r.requests != nil {
			r.requests.Add(req.Context(), 1)
		}
		r.logger.Debug("request handled",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("request_id", w.Header().Get("X-Request-Id")),
			zap.Duration("duration", time.Since(start)))
	})
}
