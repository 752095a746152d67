// Package server hosts the proxy's HTTP surface: the health probe and the
// transparent /v1 passthrough routes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/breaker"
	"github.com/shodh-ai/cortex/engine/session"
	"github.com/shodh-ai/cortex/pkg/config"
	"github.com/shodh-ai/cortex/pkg/logger"
)

// RequestIDHeader carries the correlation id across logs and responses.
const RequestIDHeader = "X-Request-ID"

// Server is the proxy HTTP server.
type Server struct {
	Router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	log        logger.Logger

	brain    *brain.Client
	breaker  *breaker.Breaker
	sessions *session.Table

	// upstream carries the (possibly re-serialized) request bodies to the
	// LLM. No global timeout: streaming responses stay open indefinitely.
	upstream *http.Client
}

// New creates the proxy server and mounts its routes.
func New(cfg *config.Config, log logger.Logger, brainClient *brain.Client, brk *breaker.Breaker, sessions *session.Table) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(log))
	router.Use(corsMiddleware())

	srv := &Server{
		Router:   router,
		config:   cfg,
		log:      log,
		brain:    brainClient,
		breaker:  brk,
		sessions: sessions,
		upstream: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		httpServer: &http.Server{
			Addr:        cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
			ReadTimeout: 30 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
	}
	srv.httpServer.Handler = router

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.healthHandler)
	s.Router.POST("/v1/messages", s.messagesHandler)
	s.Router.GET("/v1/models", s.modelsHandler)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

func loggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.EscapedPath()

		reqLog := log.With("request_id", c.GetString("request_id"))
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), reqLog))
		c.Next()

		reqLog.Debug("request completed",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start runs the server until the context is canceled, a shutdown signal
// arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("starting cortex proxy", "host", s.config.Server.Host, "port", s.config.Server.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		} else {
			errChan <- nil
		}
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-time.After(100 * time.Millisecond):
		// Listener is up.
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Info("cortex proxy started",
		"brain", s.config.Brain.URL,
		"upstream", s.config.Upstream.URL,
		"format", s.config.Upstream.ResolvedFormat(),
	)
	log.Info("point your client at the proxy",
		"base_url", fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port))

	return s.waitForShutdown(ctx, errChan)
}

// Stop gracefully drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("shutting down cortex proxy")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
		return err
	}
	log.Info("cortex proxy stopped")
	return nil
}

func (s *Server) waitForShutdown(ctx context.Context, errChan <-chan error) error {
	log := logger.FromContext(ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		log.Debug("context canceled, shutting down")
		return s.Stop(context.WithoutCancel(ctx))
	case sig := <-quit:
		log.Info("received shutdown signal", "signal", sig.String())
		return s.Stop(ctx)
	case err := <-errChan:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
			return err
		}
		return s.Stop(ctx)
	}
}
