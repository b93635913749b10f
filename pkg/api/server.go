// Package api serves the read-only status HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tico-news/newsmonitor/pkg/database"
	"github.com/tico-news/newsmonitor/pkg/store"
	"github.com/tico-news/newsmonitor/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// Worker reports liveness of a background worker for the status endpoint.
type Worker interface {
	Name() string
	LastCycle() time.Time
}

// Server is the status API server.
type Server struct {
	db      *database.Client
	store   *store.Store
	workers []Worker
	logger  *slog.Logger
	srv     *http.Server
	router  *gin.Engine
}

// NewServer builds the server listening on port.
func NewServer(port int, db *database.Client, st *store.Store, logger *slog.Logger, workers ...Worker) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		db:      db,
		store:   st,
		workers: workers,
		logger:  logger.With("component", "api"),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", s.healthHandler)
	router.GET("/api/v1/status", s.statusHandler)
	s.router = router

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	s.logger.Info("status API listening", "addr", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status API failed", "error", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// healthHandler handles GET /health. It checks only the database; upstream
// and Telegram outages must not make an orchestrator restart the process.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.Pool().Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  healthStatusUnhealthy,
			"version": version.GitCommit,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  healthStatusHealthy,
		"version": version.GitCommit,
	})
}

// statusResponse combines pipeline table counts with per-worker liveness.
type statusResponse struct {
	store.Stats
	Workers map[string]string `json:"workers"`
}

// statusHandler handles GET /api/v1/status.
func (s *Server) statusHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Error("failed to collect stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}

	workers := make(map[string]string, len(s.workers))
	for _, w := range s.workers {
		last := w.LastCycle()
		if last.IsZero() {
			workers[w.Name()] = "never"
			continue
		}
		workers[w.Name()] = last.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, statusResponse{Stats: *stats, Workers: workers})
}
