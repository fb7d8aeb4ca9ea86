package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/config"
	"github.com/ecocropai/ecocrop-backend/internal/logger"
	"github.com/ecocropai/ecocrop-backend/internal/server/handlers"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the gin engine and its lifecycle
type Server struct {
	engine *gin.Engine
	addr   string
}

// New builds the router. All routes live under /api; analysis and profile
// routes require a bearer token.
func New(cfg *config.Config, deps handlers.Dependencies) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), handlers.RequestLogger(), handlers.CORS(cfg.CORSOrigins))

	h := handlers.New(deps)

	api := engine.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	authed := api.Group("", handlers.AuthRequired(deps.AuthService))
	authed.GET("/auth/me", h.Me)
	authed.POST("/analysis", h.CreateAnalysis)
	authed.GET("/analysis/history", h.History)
	authed.GET("/analysis/:id", h.GetAnalysis)

	return &Server{
		engine: engine,
		addr:   ":" + cfg.Port,
	}
}

// Engine exposes the router for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
