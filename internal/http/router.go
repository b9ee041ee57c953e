// Package httpx wires HTTP endpoints to the auth and contact services.
package httpx

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ybilyk/contactbook/internal/avatar"
	"github.com/ybilyk/contactbook/internal/service/auth"
	"github.com/ybilyk/contactbook/internal/service/contact"
)

const healthCheckTimeout = 2 * time.Second

// Router wires HTTP endpoints to services.
type Router struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	auth           auth.Service
	contacts       contact.Service
	avatars        *avatar.Storage
	avatarMaxBytes int64
	dbHealth       func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, contactSvc contact.Service, avatars *avatar.Storage, avatarMaxBytes int64, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:            http.NewServeMux(),
		logger:         logger,
		auth:           authSvc,
		contacts:       contactSvc,
		avatars:        avatars,
		avatarMaxBytes: avatarMaxBytes,
		dbHealth:       dbHealth,
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())

	r.mux.HandleFunc("/auth/signup", r.audit(r.handleSignup))
	r.mux.HandleFunc("/auth/signin", r.audit(r.handleSignin))
	r.mux.HandleFunc("/auth/verify", r.audit(r.handleResendVerification))
	r.mux.HandleFunc("/auth/verify/", r.audit(r.handleVerifyEmail))
	r.mux.HandleFunc("/auth/current", r.audit(r.requireAuth(r.handleCurrent)))
	r.mux.HandleFunc("/auth/signout", r.audit(r.requireAuth(r.handleSignout)))
	r.mux.HandleFunc("/auth/avatars", r.audit(r.requireAuth(r.handleAvatar)))

	r.mux.HandleFunc("/api/contacts", r.audit(r.requireAuth(r.handleContacts)))
	r.mux.HandleFunc("/api/contacts/", r.audit(r.requireAuth(r.handleContactSubroutes)))

	if r.avatars != nil {
		prefix := r.avatars.URLPath() + "/"
		r.mux.Handle(prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(r.avatars.Dir()))))
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// audit logs every request with its outcome and records request metrics.
func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, routeLabel(req.URL.Path), status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if info, ok := authInfoFromContext(ctx); ok {
			fields = append(fields, "user_id", info.UserID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host := req.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}

// routeLabel collapses parameterized paths to keep metric cardinality bounded.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/auth/verify/"):
		return "/auth/verify/{code}"
	case strings.HasPrefix(path, "/api/contacts/"):
		if strings.HasSuffix(path, "/favorite") {
			return "/api/contacts/{id}/favorite"
		}
		return "/api/contacts/{id}"
	default:
		return path
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
