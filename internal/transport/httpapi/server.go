// Package httpapi exposes the chatbot pipeline and the lists service over
// HTTP. It is the only caller-visible failure surface; everything behind it
// degrades to well-formed answers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mokshitpuri/pharmalist-dbversion/internal/config"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/chat"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/lists"
	"github.com/mokshitpuri/pharmalist-dbversion/internal/service/session"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg *config.AppConfig, pipeline *chat.Pipeline, registry *session.Registry, listsSvc *lists.Service) *Server {
	mux := http.NewServeMux()

	chatHandlers := newChatHandlers(pipeline, registry)
	mux.HandleFunc("POST /chatbot/query", chatHandlers.query)
	mux.HandleFunc("POST /chatbot/clear-session", chatHandlers.clearSession)
	mux.HandleFunc("GET /chatbot/health", chatHandlers.health)

	listHandlers := newListHandlers(listsSvc)
	mux.HandleFunc("GET /lists", listHandlers.list)
	mux.HandleFunc("POST /lists", listHandlers.create)
	mux.HandleFunc("GET /lists/{id}", listHandlers.get)
	mux.HandleFunc("PUT /lists/{id}", listHandlers.update)
	mux.HandleFunc("DELETE /lists/{id}", listHandlers.delete)
	mux.HandleFunc("POST /lists/{id}/items", listHandlers.addItems)
	mux.HandleFunc("GET /lists/{id}/changes", listHandlers.changes)

	limiter := newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           limiter.middleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
