// Package api provides the HTTP REST API for reqdocx
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/memtensor/reqdocx/pkg/config"
	"github.com/memtensor/reqdocx/pkg/interfaces"
	"github.com/memtensor/reqdocx/pkg/logger"
	"github.com/memtensor/reqdocx/pkg/metrics"
	"github.com/memtensor/reqdocx/pkg/parsers"
	"github.com/memtensor/reqdocx/pkg/store"
	"github.com/memtensor/reqdocx/pkg/types"
)

// RunStore is the persistence used by the run endpoints
type RunStore interface {
	Ping(ctx context.Context) error
	SaveRun(ctx context.Context, run *store.ParseRun, reqs []types.Requirement) (*store.ParseRun, error)
	GetRun(ctx context.Context, id string, withRequirements bool) (*store.ParseRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]store.ParseRun, int64, error)
	FindRequirement(ctx context.Context, item string) ([]store.StoredRequirement, error)
	DeleteRun(ctx context.Context, id string) error
}

// Options configure a Server
type Options struct {
	API     config.APIConfig
	Export  config.ExportConfig
	Version string
}

// Server represents the API server instance
type Server struct {
	factory   *parsers.ParserFactory
	store     RunStore
	opts      Options
	logger    interfaces.Logger
	metrics   *metrics.InMemoryMetrics
	router    *gin.Engine
	server    *http.Server
	startedAt time.Time
}

// NewServer creates a new API server instance. A nil store disables
// persistence and the run endpoints answer 503.
func NewServer(factory *parsers.ParserFactory, st RunStore, opts Options, log interfaces.Logger, collector *metrics.InMemoryMetrics) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if collector == nil {
		collector = metrics.NewInMemoryMetrics()
	}
	if opts.API.Mode != "" {
		gin.SetMode(opts.API.Mode)
	}
	if opts.API.MaxUploadSize <= 0 {
		opts.API.MaxUploadSize = config.DefaultMaxFileSize
	}
	if opts.Export.Format == "" {
		opts.Export = config.NewExportConfig()
	}

	s := &Server{
		factory:   factory,
		store:     st,
		opts:      opts,
		logger:    log,
		metrics:   collector,
		router:    gin.New(),
		startedAt: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metricsMiddleware())

	if s.opts.API.CORSEnabled {
		corsConfig := cors.DefaultConfig()
		if len(s.opts.API.CORSOrigins) == 0 || contains(s.opts.API.CORSOrigins, "*") {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = s.opts.API.CORSOrigins
		}
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
		corsConfig.ExposeHeaders = []string{"X-Request-ID"}
		s.router.Use(cors.New(corsConfig))
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", s.getMetrics)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/formats", s.listFormats)
		v1.POST("/parse", s.bodyLimitMiddleware(), s.parseDocument)

		runs := v1.Group("/runs")
		{
			runs.GET("", s.listRuns)
			runs.GET("/:id", s.getRun)
			runs.DELETE("/:id", s.deleteRun)
		}

		v1.GET("/requirements/:item", s.findRequirement)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	timeout := s.opts.API.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s.server = &http.Server{
		Addr:         s.opts.API.Address(),
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", map[string]interface{}{
		"address": s.server.Addr,
		"mode":    gin.Mode(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Failed to start server", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server...")
	return s.Stop()
}

// Stop gracefully stops the API server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
