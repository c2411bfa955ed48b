// Package server exposes the load-generation engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/blastkit/blastd/internal/config"
	"github.com/blastkit/blastd/internal/engine"
)

// Server wires the HTTP API to the run engine.
type Server struct {
	cfg    config.ServerConfig
	engine *engine.Engine
	logger zerolog.Logger
	http   *http.Server
}

// New builds the server and its routes.
func New(cfg config.ServerConfig, eng *engine.Engine, logger zerolog.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:    cfg,
		engine: eng,
		logger: logger,
	}

	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())

	router.GET("/health", s.handleHealth)

	runHandlers := []gin.HandlerFunc{}
	if cfg.RunRateLimit > 0 {
		burst := int(cfg.RunRateLimit)
		if burst < 1 {
			burst = 1
		}
		runHandlers = append(runHandlers, RunRateLimit(rate.NewLimiter(rate.Limit(cfg.RunRateLimit), burst)))
	}
	runHandlers = append(runHandlers, s.handleStressTest)
	router.POST("/stress-test", runHandlers...)

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.cfg.Addr()).Msg("server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
