package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/opennote/pkg/ai"
	"github.com/aretw0/opennote/pkg/settings"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCategorize(c *gin.Context) {
	var req ai.CategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid categorize request", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	cfg := s.manager.Config(c.Request.Context())

	result, err := s.engine.Categorize(c.Request.Context(), cfg, req)
	if err != nil {
		var cfgErr *ai.ConfigError
		if errors.As(err, &cfgErr) {
			s.logger.Warn("categorization rejected", "note_id", req.NoteID, "field", cfgErr.Field)
			c.JSON(http.StatusBadRequest, errorResponse{Error: cfgErr.Error(), Code: "MISSING_CONFIG"})
			return
		}
		s.logger.Error("categorization failed", "note_id", req.NoteID, "error", err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "AI_CATEGORIZATION_FAILED"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleEnrich(c *gin.Context) {
	var req ai.EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("invalid enrich request", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	cfg := s.manager.Config(c.Request.Context())

	result, err := s.engine.Enrich(c.Request.Context(), cfg, req)
	if err != nil {
		var cfgErr *ai.ConfigError
		if errors.As(err, &cfgErr) {
			s.logger.Warn("enrichment rejected", "note_id", req.NoteID, "field", cfgErr.Field)
			c.JSON(http.StatusBadRequest, errorResponse{Error: cfgErr.Error(), Code: "MISSING_CONFIG"})
			return
		}
		s.logger.Error("enrichment failed", "note_id", req.NoteID, "error", err)
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "AI_ENRICHMENT_FAILED"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Config(c.Request.Context()))
}

func (s *Server) handlePostSettings(c *gin.Context) {
	var update settings.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.logger.Warn("invalid settings payload", "error", err)
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_REQUEST"})
		return
	}

	merged, err := s.manager.Apply(c.Request.Context(), update)
	if err != nil {
		s.logger.Error("failed to save settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to save settings: " + err.Error(),
		})
		return
	}

	s.logger.Info("settings saved", "path", s.manager.Path(), "categories", len(merged.Categories))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Settings saved successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      s.manager.Path(),
	})
}

func (s *Server) handleReloadSettings(c *gin.Context) {
	if err := s.manager.Reload(c.Request.Context()); err != nil {
		s.logger.Error("settings reload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to reload settings: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Settings reloaded successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSettingsInfo(c *gin.Context) {
	info := gin.H{
		"settingsPath": s.manager.Path(),
		"version":      "1.0.0",
	}
	if loadedAt := s.manager.LoadedAt(); !loadedAt.IsZero() {
		info["lastLoaded"] = loadedAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, info)
}
