// Package api exposes ensemble sessions over HTTP: a request carries one
// prompt, the response carries the single synthesized answer plus its
// usage summary.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/chorus-dev/chorus/internal/config"
	"github.com/chorus-dev/chorus/internal/core"
	"github.com/chorus-dev/chorus/internal/events"
	"github.com/chorus-dev/chorus/internal/logging"
	"github.com/chorus-dev/chorus/internal/orchestrator"
	"github.com/chorus-dev/chorus/internal/voice"
)

// Server serves ensemble sessions over HTTP.
type Server struct {
	router chi.Router
	cfg    *config.Config
	client core.ModelClient
	bus    *events.Bus
	retry  *voice.RetryPolicy
	logger *logging.Logger
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRetryPolicy overrides the voice retry policy.
func WithRetryPolicy(p *voice.RetryPolicy) ServerOption {
	return func(s *Server) {
		s.retry = p
	}
}

// NewServer creates a new API server. The configured voices and budget act
// as defaults that individual requests may override.
func NewServer(cfg *config.Config, client core.ModelClient, bus *events.Bus, opts ...ServerOption) *Server {
	s := &Server{
		cfg:    cfg,
		client: client,
		bus:    bus,
		retry:  voice.DefaultRetryPolicy(),
		logger: logging.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = events.NewBus(0)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/direct", s.handleDirectSession)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleCreateSession runs one full collaborative session synchronously.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSessionRequest(w, r)
	if !ok {
		return
	}

	session, orch, err := s.buildSession(req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := orch.Run(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		SessionID: string(session.ID),
		Answer:    result.Answer,
		Usage:     result.Usage,
	})
}

// handleDirectSession dispatches the prompt to every voice independently.
func (s *Server) handleDirectSession(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSessionRequest(w, r)
	if !ok {
		return
	}

	session, orch, err := s.buildSession(req)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	answers, err := orch.Direct(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, DirectResponse{
		SessionID: string(session.ID),
		Answers:   answers,
		Usage:     session.Usage(),
	})
}

func (s *Server) decodeSessionRequest(w http.ResponseWriter, r *http.Request) (*SessionRequest, bool) {
	var req SessionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

// buildSession assembles a session from the request, falling back to the
// server's configured voices, budget, and options.
func (s *Server) buildSession(req *SessionRequest) (*core.Session, *orchestrator.Orchestrator, error) {
	descs := req.descriptors()
	if len(descs) == 0 {
		descs = s.cfg.Descriptors()
	}

	budget := s.cfg.Budget.Budget()
	if req.Budget != nil {
		budget = req.Budget.budget()
	}

	opts := s.cfg.Session.Options()
	if req.SkipInitialization != nil {
		opts.SkipInitialization = *req.SkipInitialization
	}

	session, err := core.NewSession(req.Prompt, descs, budget, opts)
	if err != nil {
		return nil, nil, err
	}

	roster := orchestrator.BuildRoster(session, s.client, s.retry, s.logger)
	orch := orchestrator.New(&orchestrator.Config{
		SimilarityThreshold: s.cfg.Session.SimilarityThreshold,
		PressureShare:       s.cfg.Session.PressureShare,
	}, session, roster, nil, s.bus, s.logger)

	return session, orch, nil
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
