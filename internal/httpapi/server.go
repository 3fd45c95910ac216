// Package httpapi exposes the GitHub aggregator, the blog feeds and post
// search over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pders01/folio/internal/config"
	"github.com/pders01/folio/internal/debuglog"
	"github.com/pders01/folio/internal/feed"
	"github.com/pders01/folio/internal/search"
)

// Deps are the services behind the routes. Nil members leave their routes
// unregistered.
type Deps struct {
	GitHub GitHubService
	Feeds  FeedGenerator
	Search search.Searcher
}

type Server struct {
	cfg    config.ServerConfig
	router *mux.Router
}

func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{cfg: cfg, router: mux.NewRouter()}
	s.routes(deps)
	return s
}

func (s *Server) routes(deps Deps) {
	r := s.router
	r.Use(withRequestID, withAccessLog, withRecovery)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if deps.GitHub != nil {
		r.HandleFunc("/api/github", GitHubHandler(deps.GitHub)).Methods(http.MethodGet)
		r.HandleFunc("/api/github", GitHubActionHandler(deps.GitHub)).Methods(http.MethodPost)
	}
	if deps.Feeds != nil {
		r.HandleFunc(feed.RSSPath, FeedHandler(contentTypeRSS, deps.Feeds.GenerateRSS)).Methods(http.MethodGet)
		r.HandleFunc(feed.AtomPath, FeedHandler(contentTypeAtom, deps.Feeds.GenerateAtom)).Methods(http.MethodGet)
		r.HandleFunc(feed.JSONPath, FeedHandler(contentTypeJSON, deps.Feeds.GenerateJSONFeed)).Methods(http.MethodGet)
	}
	if deps.Search != nil {
		r.HandleFunc("/api/search", SearchHandler(deps.Search)).Methods(http.MethodGet)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		debuglog.Infof("listening on %s", ln.Addr())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	debuglog.Infof("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
