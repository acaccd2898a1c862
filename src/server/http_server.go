package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"candle-feed/src/interfaces"
	"candle-feed/src/logger"
	"candle-feed/src/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprom "github.com/zsais/go-gin-prometheus"
)

// -----------------------------------------------------------------------------
// HTTPServer
// -----------------------------------------------------------------------------

type HTTPServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Feed   interfaces.ILiveFeed
	Probe  interfaces.IConnectivityProbe

	// Heartbeat is the SSE keep-alive period
	Heartbeat time.Duration

	engine     *gin.Engine
	httpServer *http.Server
	closing    chan struct{}
	closeOnce  sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewHTTPServer(cfg *models.MConfig, feed interfaces.ILiveFeed, probe interfaces.IConnectivityProbe, logger *logger.Logger) *HTTPServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		Config:    cfg,
		Logger:    logger,
		Feed:      feed,
		Probe:     probe,
		Heartbeat: 15 * time.Second,
		engine:    gin.New(),
		closing:   make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())
	if cfg.LogLevel == "DEBUG" {
		s.engine.Use(gin.Logger())
	}

	// Request metrics, also serves /metrics
	ginprom.NewPrometheus("candle_feed_http").Use(s.engine)

	// Local dashboards only
	s.engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:")
		},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// setup web routes
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *HTTPServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/status", s.getStatus)
	s.engine.GET("/api/health", s.getHealth)

	// Push endpoints
	s.engine.GET("/api/stream", s.handleStream)
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start blocks until the server stops. A graceful Stop is not an error.
func (s *HTTPServer) Start() error {
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop ends open streams, then shuts the listener down gracefully.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.Logger.Info("Stopping HTTP server")
	s.closeOnce.Do(func() { close(s.closing) })
	return s.httpServer.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *HTTPServer) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Feed.Status())
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) getHealth(c *gin.Context) {
	st := s.Feed.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"upstreamConnected": s.Probe.IsConnected(),
		"isSessionOpen":     st.IsSessionOpen,
		"subscribers":       st.ActiveSubscribers,
		"pollers":           st.ActivePollers,
	})
}
