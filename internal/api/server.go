package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/exocortex-go/exocortex/internal/config"
	"github.com/exocortex-go/exocortex/internal/logging"
	"github.com/exocortex-go/exocortex/internal/ratelimit"
	"github.com/exocortex-go/exocortex/internal/service"
)

// Server is the read/write JSON API over a Service.
type Server struct {
	router     *gin.Engine
	svc        *service.Service
	cfg        *config.APIConfig
	limiter    *ratelimit.Limiter
	httpServer *http.Server
	log        *logging.Logger
}

// NewServer builds a Server wired to svc and configured from cfg.
func NewServer(svc *service.Service, cfg *config.APIConfig) *Server {
	log := logging.GetLogger("api")
	log.Info("initializing dashboard API server")

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.CORS {
		log.Debug("enabling CORS")
		router.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:   []string{"Content-Length", "Retry-After"},
			MaxAge:          12 * time.Hour,
		}))
	}

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	router.Use(RateLimitMiddleware(limiter))
	router.Use(MaxBodySizeMiddleware(DefaultBodyLimit))

	server := &Server{
		router:  router,
		svc:     svc,
		cfg:     cfg,
		limiter: limiter,
		log:     log,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.healthHandler)

		v1.POST("/memories", s.createMemory)
		v1.GET("/memories", s.listMemories)
		v1.GET("/memories/search", s.searchMemories)
		v1.GET("/memories/:id", s.getMemory)
		v1.PUT("/memories/:id", s.updateMemory)
		v1.DELETE("/memories/:id", s.deleteMemory)
		v1.GET("/memories/:id/related", s.findRelated)
		v1.GET("/memories/:id/graph", s.getGraph)
		v1.GET("/memories/:id/trace", s.traceMemory)

		v1.POST("/relationships", s.createRelationship)
		v1.POST("/relationships/discover", s.discoverRelationships)

		v1.POST("/analyze", s.analyze)
		v1.POST("/consolidate", s.consolidate)
		v1.GET("/stats", s.systemStats)
	}
}

// Start runs the server until it errors (blocking).
func (s *Server) Start() error {
	addr, err := s.resolveAddr()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("starting dashboard API server", "address", addr)
	return s.httpServer.ListenAndServe()
}

// StartWithContext runs the server until ctx is cancelled, then shuts it
// down gracefully within shutdownTimeout.
func (s *Server) StartWithContext(ctx context.Context, shutdownTimeout time.Duration) error {
	addr, err := s.resolveAddr()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting dashboard API server", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping dashboard API server")
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("server shutdown error", "error", err)
		return err
	}
	s.log.Info("dashboard API server stopped")
	return nil
}

// Router exposes the underlying Gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) resolveAddr() (string, error) {
	port := s.cfg.Port
	if s.cfg.AutoPort {
		p, err := findAvailablePort(port)
		if err != nil {
			return "", fmt.Errorf("failed to find available port: %w", err)
		}
		port = p
	}
	return fmt.Sprintf("%s:%d", s.cfg.Host, port), nil
}

func findAvailablePort(startPort int) (int, error) {
	for port := startPort; port < startPort+100; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			ln.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, startPort+100)
}
