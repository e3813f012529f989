// Package web implements the browser front end: a form that accepts a Graph
// API token and a SharePoint site id, runs the diagram pipeline, and serves
// the generated image.
//
// State between requests (flash messages, the last generated diagram) lives
// in a server-side session referenced by a cookie. Tokens are used for the
// single generate request that carries them and are never persisted.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/listgraph/listgraph/pkg/config"
	"github.com/listgraph/listgraph/pkg/graphapi"
	"github.com/listgraph/listgraph/pkg/pipeline"
	"github.com/listgraph/listgraph/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// generator is the part of pipeline.Runner the handlers need.
// Tests swap in a fake to avoid network and graphviz calls.
type generator interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// newGenerator builds a generator for one request's token.
type newGenerator func(token string) (generator, error)

// Server is the web front end.
type Server struct {
	cfg    config.Config
	store  session.Store
	logger *log.Logger
	tmpl   *template.Template
	newGen newGenerator
}

// NewServer creates a Server from cfg with the given session store.
func NewServer(cfg config.Config, store session.Store, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		tmpl:   tmpl,
	}
	s.newGen = func(token string) (generator, error) {
		return pipeline.NewGraphRunner(graphapi.Config{
			Token:   token,
			BaseURL: cfg.Graph.BaseURL,
		}, logger)
	}
	return s, nil
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Post("/generate", s.handleGenerate)
	r.Get("/results", s.handleResults)
	r.Get("/schema", s.handleSchema)
	r.Get("/diagrams/{name}", s.handleDownload)

	return r
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("listening", "addr", s.cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// logRequests logs method, path, status and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
