package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"stranger-chat/internal/config"
	"stranger-chat/internal/server"
	"stranger-chat/internal/stats"
)

type ChatApp struct {
	log            *log.Logger
	mux            *http.Server
	cs             *server.ChatServer
	stats          stats.StatsProvider
	allowedOrigins []string
	limiter        *rateLimiter
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, st stats.StatsProvider, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		cs:             cs,
		stats:          st,
		allowedOrigins: cfg.AllowedOrigins,
		limiter:        newRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}

	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /ws", http.HandlerFunc(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.rateLimitMiddleware(h)
	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
