// Package server implements the graphpad HTTP surface: the board page with
// its submission form and graph cards, and a JSON API mirroring the same
// operations.
//
// The server renders graphs inline while building the page. Rendering goes
// through the memoized engine adapter, so reloading the page or saving an
// unchanged source never reaches the layout engine. Render failures are
// confined to the failing card: the error message takes the place of the
// graph and every other card is unaffected.
package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphpad/pkg/board"
	"github.com/matzehuels/graphpad/pkg/engine"
	"github.com/matzehuels/graphpad/pkg/trace"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server holds the board, the render adapter, and the shared logger.
type Server struct {
	board    *board.Board
	renderer engine.SVGRenderer
	tracer   *trace.Tracer
	logger   *log.Logger
}

// New creates a server. A nil tracer disables tracing; a nil logger falls
// back to the default charmbracelet logger.
func New(b *board.Board, r engine.SVGRenderer, tracer *trace.Tracer, logger *log.Logger) *Server {
	if tracer == nil {
		tracer = trace.Discard()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{board: b, renderer: r, tracer: tracer, logger: logger}
}

// Router builds the chi router with all routes and middleware registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	// HTML surface
	r.Get("/", s.handleIndex)
	r.Post("/graphs", s.handleCreate)
	r.Post("/graphs/{id}/source", s.handleUpdateSource)
	r.Post("/graphs/{id}/delete", s.handleDelete)
	r.Get("/graphs/{id}/svg", s.handleSVG)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/engines", s.apiEngines)
		r.Get("/graphs", s.apiList)
		r.Post("/graphs", s.apiCreate)
		r.Get("/graphs/{id}", s.apiGet)
		r.Patch("/graphs/{id}", s.apiUpdateSource)
		r.Delete("/graphs/{id}", s.apiDelete)
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully with a short drain window.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Dangling trace groups are force-closed with the serving scope.
	s.tracer.CloseAll()
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs one line per request through the shared logger.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
