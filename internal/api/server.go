// Package api is the HTTP preview surface: it serves parsed and resolved
// documents and query models, and accepts the external events (field edits,
// mutations, remote-call responses) that trigger new resolution passes.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RoyalIcing/datadown-preview/internal/config"
	"github.com/RoyalIcing/datadown-preview/internal/dispatch"
	"github.com/RoyalIcing/datadown-preview/internal/resolve"
	"github.com/RoyalIcing/datadown-preview/internal/session"
)

// Server is the HTTP API server for the previewer.
type Server struct {
	router     chi.Router
	sessions   *session.Store
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server. dispatcher may be nil
// when HTTP dispatch is disabled.
func NewServer(sessions *session.Store, dispatcher *dispatch.Dispatcher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions:   sessions,
		dispatcher: dispatcher,
		log:        log,
		cfg:        cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.PreviewAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.PreviewAPIKey, s.log))
		}

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/*", s.routeDocument)
		r.Put("/api/documents/*", s.routeDocumentPut)
		r.Post("/api/documents/*", s.routeDocumentPost)
		r.Delete("/api/documents/*", s.routeDocumentDelete)
		r.Post("/api/rpc/responses", s.handleDeliverResponse)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// resolveAndDispatch runs a pass and fires any newly discovered HTTP
// descriptors; their responses arrive later as independent events. Dispatch
// outlives the triggering request, so it runs on the background context.
func (s *Server) resolveAndDispatch(sess *session.Session) *resolve.Document {
	resolved := sess.Resolve()
	if s.dispatcher == nil {
		return resolved
	}
	for _, req := range resolved.Requests {
		if sess.Dispatched(req.ID) || !dispatch.Dispatchable(req) {
			continue
		}
		sess.MarkDispatched(req)
		s.dispatcher.Dispatch(context.Background(), req, sess.DeliverResponse)
	}
	return resolved
}
