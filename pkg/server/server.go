// Package server exposes the word list, the context menu, the badge and the
// reading proxy over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/config"
	"github.com/japaniel/wordlens/pkg/coordinator"
	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/messaging"
	"github.com/japaniel/wordlens/pkg/metrics"
	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// Deps are the components the handlers work on.
type Deps struct {
	Store       *vocab.Store
	Coordinator *coordinator.Coordinator
	Menu        *coordinator.Menu
	Sessions    *page.Sessions
	Hub         *messaging.Hub
}

// Server is the wordlens HTTP service.
type Server struct {
	deps   Deps
	cfg    config.ServerConfig
	router *gin.Engine
}

// New builds the router.
func New(deps Deps, cfg config.ServerConfig) *Server {
	s := &Server{deps: deps, cfg: cfg}
	s.router = s.newRouter()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(), RequestMetrics(), ErrorHandler())
	router.Use(cors.New(buildCORSConfig(s.cfg.AllowedOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/menu", s.listMenu)
		api.POST("/menu/click", s.menuClick)
		api.GET("/badge", s.badge)
		api.GET("/words", s.listWords)
		api.DELETE("/words/:word", s.deleteWord)
		api.DELETE("/words", s.clearWords)
	}

	router.GET("/read", s.read)

	tabs := router.Group("/tabs/:id")
	{
		tabs.GET("", s.renderTab)
		tabs.DELETE("", s.closeTab)
		tabs.POST("/refresh", s.refreshTab)
		tabs.POST("/messages", s.postMessage)
		tabs.GET("/events", s.tabEvents)
	}
	return router
}

// Run serves on the configured port until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	if ttl := s.cfg.TabIdleTimeout; ttl > 0 {
		go s.deps.Sessions.Sweep(ctx, ttl/2, ttl)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.L().Info("Server started", zap.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		logger.L().Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.L().Info("Shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.L().Info("Server stopped gracefully")
	return nil
}
