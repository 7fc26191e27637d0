// Package server exposes the AI processing endpoints and settings API over
// HTTP. Handlers stay thin: configuration lives in settings.Manager and the
// model interaction in ai.Engine.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/opennote/pkg/ai"
	"github.com/aretw0/opennote/pkg/settings"
)

// Config wires the server's collaborators.
type Config struct {
	Manager *settings.Manager
	Engine  *ai.Engine
	Logger  *slog.Logger

	// Addr is the listen address. Defaults to ":3001".
	Addr string
}

// Server handles the processing and settings API.
type Server struct {
	manager *settings.Manager
	engine  *ai.Engine
	logger  *slog.Logger
	addr    string
}

// New returns an unstarted Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":3001"
	}
	return &Server{
		manager: cfg.Manager,
		engine:  cfg.Engine,
		logger:  logger,
		addr:    addr,
	}
}

// Router builds the route table. Exposed separately so tests can drive the
// handlers without a listener.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/categorize", s.handleCategorize)
		api.POST("/enrich", s.handleEnrich)
		api.GET("/settings", s.handleGetSettings)
		api.POST("/settings", s.handlePostSettings)
		api.POST("/settings/reload", s.handleReloadSettings)
		api.GET("/settings/info", s.handleSettingsInfo)
	}
	return router
}

// Run serves until ctx is canceled, then shuts down draining in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
