// package server contains middleware & handlers for the promptlist web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/promptlist/internal/auth"
	"github.com/desertthunder/promptlist/internal/metrics"
	"github.com/desertthunder/promptlist/internal/models"
	"github.com/desertthunder/promptlist/internal/services"
	"github.com/desertthunder/promptlist/internal/shared"
	"github.com/desertthunder/promptlist/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, recovery, CORS, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the promptlist service.
// Implementations handle specific endpoints (auth, generation, export).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Authorizer runs the redirect and callback halves of the authorization flow.
type Authorizer interface {
	AuthorizationURL(ctx context.Context) (state, authURL string, err error)
	CompleteCallback(ctx context.Context, params auth.CallbackParams) (models.AccessCredential, error)
}

var _ Authorizer = (*auth.Flow)(nil)

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Flow      Authorizer
	Generator services.Generator // nil disables /generate-playlist
	Exporter  tasks.Exporter
	Metrics   *metrics.Collector   // optional
	Gatherer  prometheus.Gatherer  // serves /metrics when set
	Config    shared.ServerConfig
	Export    shared.ExportConfig
	Logger    *log.Logger
}

// Server is the promptlist HTTP API.
type Server struct {
	router *BasicRouter
	addr   string
	logger *log.Logger
}

// New wires the routes and middleware of the API.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	logger := shared.WithLogger(deps.Logger, "component", "server")

	r := NewBasicRouter()
	r.Use(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger, deps.Metrics),
		CORSMiddleware(deps.Config.AllowedOrigins),
	)

	r.Handle(http.MethodGet, "/health", http.HandlerFunc(healthHandler))
	r.Handle(http.MethodGet, "/auth/spotify", NewAuthRedirectHandler(deps.Flow, logger))
	r.Handler(NewOAuthHandler(deps.Flow, OAuthOptions{
		FrontendURL: deps.Config.FrontendURL,
		Recorder:    deps.Metrics,
		Logger:      logger,
	}))
	r.Handle(http.MethodPost, "/generate-playlist", NewGenerateHandler(deps.Generator, logger))
	r.Handle(http.MethodPost, "/export-playlist", NewExportHandler(deps.Exporter, deps.Export.Public, logger))
	if deps.Gatherer != nil {
		r.Handle(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return &Server{router: r, addr: deps.Config.Addr(), logger: logger}
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		s.logger.Debug("routes", "routes", s.router.Routes())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
