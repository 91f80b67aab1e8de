// Package server exposes the analysis engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fairexam/fairexam/internal/analysis"
	"github.com/fairexam/fairexam/internal/llm"
)

// Config configures the HTTP server.
type Config struct {
	Addr string

	// AllowedOrigins lists the origins allowed by CORS. "*" allows any.
	AllowedOrigins []string

	// MaxUploadBytes caps the size of one multipart analyze request.
	MaxUploadBytes int64

	Version string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8000",
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 20 << 20,
		Version:        "(devel)",
	}
}

// Analyzer runs one analysis. *analysis.Engine satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// Server serves the analysis API.
type Server struct {
	cfg      Config
	engine   Analyzer
	provider llm.Provider
}

// New creates a Server. provider may be nil when the engine runs
// heuristics only; it is used for health and status reporting.
func New(cfg Config, engine Analyzer, provider llm.Provider) *Server {
	return &Server{cfg: cfg, engine: engine, provider: provider}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	h := &handler{
		engine:    s.engine,
		provider:  s.provider,
		maxUpload: s.cfg.MaxUploadBytes,
		version:   s.cfg.Version,
	}

	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", h.Analyze).Methods("POST", "OPTIONS")
	api.HandleFunc("/classifier/status", h.ClassifierStatus).Methods("GET", "OPTIONS")

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", s.cfg.Addr, "classifier", s.classifierModel())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) classifierModel() string {
	if s.provider == nil {
		return "heuristic"
	}
	return s.provider.ModelID()
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowAny := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAny:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
