// Package api exposes the learning and regime services over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/learning-agent/internal/config"
	"github.com/yourusername/learning-agent/internal/metrics"
	"github.com/yourusername/learning-agent/internal/models"
	"github.com/yourusername/learning-agent/internal/reportcache"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// unmatchedRoute labels requests that matched no route, so arbitrary paths never become label values
const unmatchedRoute = "unmatched"

// Learner runs learning cycles and serves retained reports
type Learner interface {
	Learn(ctx context.Context, req models.LearnRequest) (*models.LearnResponse, error)
	Report(id string) (*reportcache.Report, error)
}

// RegimeClassifier runs regime classifications
type RegimeClassifier interface {
	Classify(ctx context.Context, req models.ClassifyRequest) (*models.ClassifyResponse, error)
	ClassifySymbol(ctx context.Context, symbol, timeframe string, limit int) (*models.ClassifyResponse, error)
}

// Server is the HTTP API server
type Server struct {
	router     *mux.Router
	server     *http.Server
	learner    Learner
	classifier RegimeClassifier
	limiter    *rate.Limiter
	cfg        config.ServerConfig
	logger     *logrus.Entry
}

// NewServer wires routes and middleware. An empty metricsPath leaves metrics unexposed.
func NewServer(cfg config.ServerConfig, learner Learner, classifier RegimeClassifier, metricsPath string, log *logrus.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		learner:    learner,
		classifier: classifier,
		cfg:        cfg,
		logger:     log.WithField("component", "api"),
	}
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}

	s.setupRoutes(metricsPath)

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(metricsPath string) {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	if metricsPath != "" {
		s.router.Handle(metricsPath, metrics.Handler()).Methods(http.MethodGet)
	}

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Use(s.rateLimitMiddleware)
	v1.Use(s.jsonContentTypeMiddleware)

	v1.HandleFunc("/learn", s.handleLearn).Methods(http.MethodPost)
	v1.HandleFunc("/regime", s.handleClassify).Methods(http.MethodPost)
	v1.HandleFunc("/regime/{symbol}", s.handleClassifySymbol).Methods(http.MethodGet)
	v1.HandleFunc("/reports/{id}", s.handleReport).Methods(http.MethodGet)

	// mux skips router middleware for these, so they carry their own chain
	s.router.NotFoundHandler = s.requestIDMiddleware(s.requestLoggingMiddleware(http.HandlerFunc(s.handleNotFound)))
	s.router.MethodNotAllowedHandler = s.requestIDMiddleware(s.requestLoggingMiddleware(http.HandlerFunc(s.handleMethodNotAllowed)))
}

// requestIDMiddleware tags each request with a short ID
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()[:8]
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs and measures every request
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		duration := time.Since(start)

		route := unmatchedRoute
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.RecordHTTPRequest(route, strconv.Itoa(wrapper.statusCode), duration.Seconds())

		s.logger.WithFields(logrus.Fields{
			"request_id":  r.Context().Value(requestIDKey),
			"method":      r.Method,
			"route":       route,
			"status":      wrapper.statusCode,
			"duration_ms": float64(duration.Microseconds()) / 1000,
			"remote_addr": r.RemoteAddr,
		}).Info("Request served")
	})
}

// rateLimitMiddleware rejects requests beyond the configured rate with 429
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "Request rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("address", s.cfg.Address).Info("Starting HTTP API server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP API server")
	return s.server.Shutdown(ctx)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
