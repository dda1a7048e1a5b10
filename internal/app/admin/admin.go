// Package admin serves the operational HTTP endpoints: Prometheus metrics and
// a health check backed by the user store.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/user_service/internal/app/metrics"
	"github.com/R3E-Network/user_service/internal/app/storage"
	"github.com/R3E-Network/user_service/pkg/logger"
)

const healthTimeout = 2 * time.Second

// NewRouter builds the admin routes.
func NewRouter(pinger storage.Pinger, log *logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(log))
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthHandler(pinger, log)).Methods(http.MethodGet)
	return r
}

func healthHandler(pinger storage.Pinger, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := pinger.Ping(ctx); err != nil {
			log.WithError(err).Warn("health check failed")
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

// loggingMiddleware logs each admin request at debug level.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.WithField("method", r.Method).
				WithField("path", r.URL.Path).
				WithField("status", wrapped.statusCode).
				WithField("duration", time.Since(start)).
				Debug("admin request")
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Server is the admin HTTP listener.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// New creates an admin server bound to addr once Serve is called.
func New(addr string, pinger storage.Pinger, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("admin")
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(pinger, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Serve listens on the configured address and blocks until Shutdown.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ln)
}

// ServeListener serves on an existing listener.
func (s *Server) ServeListener(ln net.Listener) error {
	s.log.WithField("addr", ln.Addr().String()).Info("admin listening")
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the admin server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
