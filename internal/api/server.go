package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketbridge/internal/api/handlers"
	"marketbridge/internal/api/middleware"
	"marketbridge/internal/config"
	"marketbridge/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the import history the API reads from.
type Store interface {
	handlers.ImportStore
	handlers.Pinger
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, store Store, runner handlers.Runner) *Server {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	importHandler := handlers.NewImportHandler(store, runner, logger)

	router.GET("/healthz", handlers.Health(store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	v1 := router.Group("/api/v1")
	{
		imports := v1.Group("/imports")
		{
			imports.GET("", importHandler.List)
			imports.GET("/:id", importHandler.Get)
			imports.POST("", importHandler.Create)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	// POST /imports waits for a whole pipeline run.
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
